package agents

import (
	"context"

	"github.com/mediaiq/miq/internal/config"
)

// Deepfake screens submitted media for synthetic-content artifacts.
type Deepfake struct {
	base
}

// NewDeepfake creates the deepfake agent.
func NewDeepfake(settings *config.Settings) *Deepfake {
	return &Deepfake{base: base{
		key:         "deepfake",
		name:        "Deepfake Detection Agent",
		description: "Screens media for synthetic-content and manipulation artifacts",
		settings:    settings,
	}}
}

func (d *Deepfake) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	url := orDefault(inputURL(input), "https://media.example.com/assets/demo-segment.mp4")
	return map[string]any{
		"url":             url,
		"verdict":         "authentic",
		"confidence":      0.93,
		"frames_analyzed": 1200,
		"checks": []any{
			map[string]any{"name": "face_warp", "score": 0.04},
			map[string]any{"name": "lip_sync_drift", "score": 0.07},
			map[string]any{"name": "frequency_artifacts", "score": 0.02},
		},
	}, nil
}

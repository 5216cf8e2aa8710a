package agents

import (
	"context"

	"github.com/mediaiq/miq/internal/config"
)

// Clip scans long-form content for short, high-engagement moments.
type Clip struct {
	base
}

// NewClip creates the clip agent.
func NewClip(settings *config.Settings) *Clip {
	return &Clip{base: base{
		key:         "clip",
		name:        "Clip Agent",
		description: "Detects viral-ready moments in long-form content and cuts vertical clips",
		settings:    settings,
	}}
}

func (c *Clip) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	url := orDefault(inputURL(input), "https://media.example.com/assets/demo-segment.mp4")
	moments := []any{
		map[string]any{
			"start":  "00:12:41",
			"end":    "00:13:09",
			"score":  0.91,
			"reason": "emotional peak, strong quote",
			"title":  "\"We never expected this outcome\"",
		},
		map[string]any{
			"start":  "00:31:05",
			"end":    "00:31:48",
			"score":  0.84,
			"reason": "crowd reaction, replayable action",
			"title":  "Studio erupts at live result",
		},
	}
	return map[string]any{
		"url":           url,
		"viral_moments": moments,
		"clip_count":    len(moments),
		"aspect_ratios": []any{"9:16", "1:1"},
	}, nil
}

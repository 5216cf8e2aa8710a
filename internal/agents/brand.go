package agents

import (
	"context"

	"github.com/mediaiq/miq/internal/config"
)

// Brand tracks sponsor exposure and placement compliance in aired content.
type Brand struct {
	base
}

// NewBrand creates the brand agent.
func NewBrand(settings *config.Settings) *Brand {
	return &Brand{base: base{
		key:         "brand",
		name:        "Brand Agent",
		description: "Tracks sponsor exposure and placement obligations in aired content",
		settings:    settings,
	}}
}

func (b *Brand) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	return map[string]any{
		"placements": []any{
			map[string]any{"sponsor": "Aurora Motors", "exposure_seconds": 48, "obligation_seconds": 45, "status": "met"},
			map[string]any{"sponsor": "Peak Fitness", "exposure_seconds": 22, "obligation_seconds": 30, "status": "short"},
		},
		"logo_detections": 17,
		"makegood_needed": []any{"Peak Fitness"},
	}, nil
}

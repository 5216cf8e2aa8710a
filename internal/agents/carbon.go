package agents

import (
	"context"

	"github.com/mediaiq/miq/internal/config"
)

// Carbon estimates energy use and emissions for the production chain.
type Carbon struct {
	base
}

// NewCarbon creates the carbon agent.
func NewCarbon(settings *config.Settings) *Carbon {
	return &Carbon{base: base{
		key:         "carbon",
		name:        "Carbon Agent",
		description: "Estimates energy use and CO2 output of the production and delivery chain",
		settings:    settings,
	}}
}

func (c *Carbon) Validate(input any) bool { return true }

func (c *Carbon) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	return map[string]any{
		"period":        "last_hour",
		"kwh":           412.6,
		"co2_kg":        167.3,
		"grid_mix":      map[string]any{"renewable": 0.56, "fossil": 0.44},
		"largest_draw":  "transcode farm",
		"vs_last_week":  -0.08,
	}, nil
}

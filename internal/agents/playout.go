package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/connectors"
)

// Playout manages the transmission schedule: holds, swaps and late insertions.
type Playout struct {
	base
	conns *connectors.Registry
}

// NewPlayout creates the playout agent.
func NewPlayout(settings *config.Settings, conns *connectors.Registry) *Playout {
	return &Playout{
		base: base{
			key:         "playout",
			name:        "Playout Agent",
			description: "Manages the transmission schedule: holds, swaps and late insertions",
			settings:    settings,
		},
		conns: conns,
	}
}

func (p *Playout) Validate(input any) bool { return true }

func (p *Playout) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	action := "status"
	if t := strings.ToLower(inputText(input)); strings.Contains(t, "hold") ||
		strings.Contains(t, "critical") || strings.Contains(t, "violation") {
		action = "hold"
	}
	out := map[string]any{
		"channel":     "MIQ-1",
		"action":      action,
		"on_air_item": "evening-news",
		"next_item":   "nature-series-s02e04",
	}
	if action == "hold" {
		out["held_item"] = "nature-series-s02e04"
		out["fallback"] = "standby slate + promo reel"
		res := p.conns.CallTool(ctx, "newsroom_file_wire", map[string]any{
			"slug": "PLAYOUT-HOLD",
			"body": "automated hold placed on next item pending standards review",
		})
		if !res.Success {
			return nil, fmt.Errorf("playout advisory: %s", res.Error)
		}
		out["advisory_filed"] = res.Data["filed"]
	}
	return out, nil
}

package agents

import (
	"context"

	"github.com/mediaiq/miq/internal/config"
)

// Trending watches social and search velocity for topics worth covering.
// Demo-only until the platform feed APIs are wired in.
type Trending struct {
	base
}

// NewTrending creates the trending agent.
func NewTrending(settings *config.Settings) *Trending {
	return &Trending{base: base{
		key:         "trending",
		name:        "Trending Agent",
		description: "Monitors topic velocity across platforms and flags breaking stories",
		settings:    settings,
	}}
}

func (t *Trending) Validate(input any) bool { return true } // scheduled scans carry no payload

func (t *Trending) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	return map[string]any{
		"window_minutes": 5,
		"sources":        []any{"x", "google_trends", "reddit"},
		"trends": []any{
			map[string]any{
				"topic":          "coastal storm landfall",
				"velocity_score": 94,
				"mentions":       48210,
				"sentiment":      "concerned",
			},
			map[string]any{
				"topic":          "transfer deadline rumors",
				"velocity_score": 71,
				"mentions":       12904,
				"sentiment":      "excited",
			},
		},
		"breaking_news": []any{
			map[string]any{
				"headline":   "Storm makes landfall ahead of forecast; evacuations under way",
				"confidence": 0.88,
				"first_seen": "x",
			},
		},
	}, nil
}
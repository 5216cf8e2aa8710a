package agents

import (
	"context"

	"github.com/mediaiq/miq/internal/config"
)

// Audience reports viewing figures and retention across linear and digital.
type Audience struct {
	base
}

// NewAudience creates the audience agent.
func NewAudience(settings *config.Settings) *Audience {
	return &Audience{base: base{
		key:         "audience",
		name:        "Audience Agent",
		description: "Reports audience figures, retention and platform split",
		settings:    settings,
	}}
}

func (a *Audience) Validate(input any) bool { return true }

func (a *Audience) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	return map[string]any{
		"window":          "last_24h",
		"peak_concurrent": 184_000,
		"avg_concurrent":  112_400,
		"retention_pct":   68.5,
		"platform_split": map[string]any{
			"linear": 0.41,
			"ott":    0.38,
			"social": 0.21,
		},
		"top_segment": "evening-news open",
	}, nil
}

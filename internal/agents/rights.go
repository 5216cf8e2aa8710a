package agents

import (
	"context"

	"github.com/mediaiq/miq/internal/config"
)

// Rights audits license windows and territorial clearances.
type Rights struct {
	base
}

// NewRights creates the rights agent.
func NewRights(settings *config.Settings) *Rights {
	return &Rights{base: base{
		key:         "rights",
		name:        "Rights Agent",
		description: "Audits content licenses, expiry windows and territorial clearances",
		settings:    settings,
	}}
}

func (r *Rights) Validate(input any) bool { return true } // scheduled audits carry no payload

func (r *Rights) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	return map[string]any{
		"audited": 312,
		"licenses": []any{
			map[string]any{
				"asset":             "ARC-0142 world-cup-recap",
				"licensor":          "GlobalSport Media",
				"days_until_expiry": 12,
				"territories":       []any{"US", "CA"},
				"renewal_contact":   "licensing@globalsport.example",
			},
			map[string]any{
				"asset":             "ARC-0387 nature-series-s02",
				"licensor":          "Meridian Studios",
				"days_until_expiry": 240,
				"territories":       []any{"worldwide"},
			},
		},
		"violations": []any{},
	}, nil
}

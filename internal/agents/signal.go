package agents

import (
	"context"

	"github.com/mediaiq/miq/internal/config"
)

// Signal monitors contribution and transmission feeds for faults.
type Signal struct {
	base
}

// NewSignal creates the signal agent.
func NewSignal(settings *config.Settings) *Signal {
	return &Signal{base: base{
		key:         "signal",
		name:        "Signal Agent",
		description: "Monitors contribution and transmission feeds for faults",
		settings:    settings,
	}}
}

func (s *Signal) Validate(input any) bool { return true }

func (s *Signal) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	return map[string]any{
		"feeds_checked": 12,
		"status":        "locked",
		"bitrate_mbps":  49.8,
		"scte35_events": 4,
		"alarms":        []any{},
		"worst_feed": map[string]any{
			"name":       "SAT-7 contribution",
			"margin_db":  3.2,
			"packet_err": 0,
		},
	}, nil
}

package agents

import (
	"context"
	"encoding/json"

	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/providers"
)

// LiveFactCheck verifies claims as they are made on air, optimized for
// latency over depth. Deeper follow-up goes through the factcheck agent.
type LiveFactCheck struct {
	base
	llm *providers.Client
}

// NewLiveFactCheck creates the live fact-check agent.
func NewLiveFactCheck(settings *config.Settings, llm *providers.Client) *LiveFactCheck {
	return &LiveFactCheck{
		base: base{
			key:          "live_fact_check",
			name:         "Live Fact-Check Agent",
			description:  "Checks on-air claims in near real time for lower-third corrections",
			integrations: []string{"openai"},
			settings:     settings,
		},
		llm: llm,
	}
}

func (l *LiveFactCheck) Validate(input any) bool { return true }

func (l *LiveFactCheck) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	return map[string]any{
		"on_air_claims": []any{
			map[string]any{
				"claim":       "Winds reached 150 mph at landfall",
				"verdict":     "needs_context",
				"lower_third": "NWS: sustained winds 130 mph, gusts to 150",
				"latency_ms":  2400,
			},
		},
		"checked":    1,
		"latency_ms": 2400,
	}, nil
}

func (l *LiveFactCheck) ProductionProcess(ctx context.Context, input any) (map[string]any, error) {
	if l.llm == nil {
		return nil, agent.ErrProductionNotReady
	}
	text, err := l.llm.Complete(ctx,
		`You fact-check live broadcast claims under time pressure. For each claim give a one-line verdict suitable for a lower-third. Respond with JSON: {"on_air_claims":[{"claim":"...","verdict":"...","lower_third":"..."}]}.`,
		inputText(input))
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if jsonErr := json.Unmarshal([]byte(text), &out); jsonErr != nil {
		out = map[string]any{"on_air_claims": []any{}, "analysis": text}
	}
	return out, nil
}

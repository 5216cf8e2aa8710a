package agents

import (
	"context"
	"encoding/json"

	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/providers"
)

// Factcheck verifies claims in scripts and story copy before publication.
type Factcheck struct {
	base
	llm *providers.Client
}

// NewFactcheck creates the fact-check agent.
func NewFactcheck(settings *config.Settings, llm *providers.Client) *Factcheck {
	return &Factcheck{
		base: base{
			key:          "factcheck",
			name:         "Fact-Check Agent",
			description:  "Verifies factual claims in scripts and story copy",
			integrations: []string{"openai"},
			settings:     settings,
		},
		llm: llm,
	}
}

func (f *Factcheck) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	return map[string]any{
		"claims": []any{
			map[string]any{
				"claim":   "Evacuation orders cover three coastal counties",
				"verdict": "supported",
				"sources": []any{"state emergency bulletin 14:32 UTC"},
			},
			map[string]any{
				"claim":   "Storm is the strongest on record for the region",
				"verdict": "needs_context",
				"sources": []any{"historical landfall database"},
				"note":    "strongest since 1998, not on record",
			},
		},
		"checked": 2,
	}, nil
}

func (f *Factcheck) ProductionProcess(ctx context.Context, input any) (map[string]any, error) {
	if f.llm == nil {
		return nil, agent.ErrProductionNotReady
	}
	text, err := f.llm.Complete(ctx,
		`You are a newsroom fact-checker. Extract the checkable claims from the copy and assess each. Respond with JSON: {"claims":[{"claim":"...","verdict":"supported|disputed|needs_context|unverifiable","note":"..."}]}.`,
		inputText(input))
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if jsonErr := json.Unmarshal([]byte(text), &out); jsonErr != nil {
		out = map[string]any{"claims": []any{}, "analysis": text}
	}
	return out, nil
}

package agents

import (
	"context"

	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/providers"
)

// ProductionDirector proposes rundown and camera decisions for live shows.
type ProductionDirector struct {
	base
	llm *providers.Client
}

// NewProductionDirector creates the AI production director agent.
func NewProductionDirector(settings *config.Settings, llm *providers.Client) *ProductionDirector {
	return &ProductionDirector{
		base: base{
			key:          "ai_production_director",
			name:         "AI Production Director",
			description:  "Proposes rundown changes and camera cues for live production",
			integrations: []string{"openai"},
			settings:     settings,
		},
		llm: llm,
	}
}

func (p *ProductionDirector) Validate(input any) bool { return true }

func (p *ProductionDirector) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	return map[string]any{
		"rundown_changes": []any{
			map[string]any{"action": "float", "slug": "WX-FORECAST", "reason": "breaking story takes the A-block"},
			map[string]any{"action": "insert", "slug": "STORM-LANDFALL-LIVE", "position": 2, "duration_sec": 150},
		},
		"camera_cues": []any{
			map[string]any{"cue": "CAM2 tight on anchor for breaking open"},
			map[string]any{"cue": "CAM4 wide on storm wall graphic"},
		},
		"requires_approval": true,
	}, nil
}

func (p *ProductionDirector) ProductionProcess(ctx context.Context, input any) (map[string]any, error) {
	if p.llm == nil {
		return nil, agent.ErrProductionNotReady
	}
	text, err := p.llm.Complete(ctx,
		"You are a live-production director's assistant. Given the show state, propose rundown changes and camera cues as short imperative lines.",
		inputText(input))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"proposal":          text,
		"requires_approval": true,
	}, nil
}

package agents

import (
	"context"
	"encoding/json"

	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/providers"
)

// Compliance screens content against brand-safety and regulatory rules.
type Compliance struct {
	base
	llm *providers.Client
}

// NewCompliance creates the compliance agent.
func NewCompliance(settings *config.Settings, llm *providers.Client) *Compliance {
	return &Compliance{
		base: base{
			key:          "compliance",
			name:         "Compliance Agent",
			description:  "Screens content for GARM brand-safety and regulatory issues",
			integrations: []string{"openai"},
			settings:     settings,
		},
		llm: llm,
	}
}

func (c *Compliance) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	url := orDefault(inputURL(input), "https://media.example.com/assets/demo-segment.mp4")
	return map[string]any{
		"url":         url,
		"garm_rating": "high_risk",
		"iab_categories": []any{
			"IAB12 News & Politics",
		},
		"issues": []any{
			map[string]any{
				"code":      "GARM-3",
				"severity":  "critical",
				"timecode":  "00:07:12",
				"summary":   "graphic imagery without advisory slate",
				"directive": "hold for standards review before air",
			},
			map[string]any{
				"code":     "GARM-9",
				"severity": "low",
				"timecode": "00:22:40",
				"summary":  "incidental branded signage in frame",
			},
		},
	}, nil
}

func (c *Compliance) ProductionProcess(ctx context.Context, input any) (map[string]any, error) {
	if c.llm == nil {
		return nil, agent.ErrProductionNotReady
	}
	text, err := c.llm.Complete(ctx,
		`You are a broadcast standards reviewer. Assess the described content against GARM brand-safety categories. Respond with JSON: {"garm_rating":"...","issues":[{"code":"...","severity":"critical|high|medium|low","summary":"..."}]}.`,
		inputText(input))
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if jsonErr := json.Unmarshal([]byte(text), &out); jsonErr != nil {
		out = map[string]any{"garm_rating": "unrated", "issues": []any{}, "analysis": text}
	}
	if _, ok := out["url"]; !ok {
		out["url"] = inputURL(input)
	}
	return out, nil
}

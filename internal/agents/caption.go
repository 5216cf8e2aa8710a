package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/providers"
)

// Caption generates subtitle tracks for a media asset.
type Caption struct {
	base
	llm *providers.Client
}

// NewCaption creates the caption agent.
func NewCaption(settings *config.Settings, llm *providers.Client) *Caption {
	return &Caption{
		base: base{
			key:          "caption",
			name:         "Caption Agent",
			description:  "Generates broadcast-grade captions and subtitle files for media assets",
			integrations: []string{"openai"},
			settings:     settings,
		},
		llm: llm,
	}
}

func (c *Caption) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	url := orDefault(inputURL(input), "https://media.example.com/assets/demo-segment.mp4")
	return map[string]any{
		"url":          url,
		"language":     "en",
		"caption_file": url + ".vtt",
		"word_count":   1847,
		"confidence":   0.97,
		"segments": []any{
			map[string]any{"start": "00:00:00.000", "end": "00:00:04.200", "text": "Good evening, and welcome to the program."},
			map[string]any{"start": "00:00:04.200", "end": "00:00:09.800", "text": "Tonight we begin with developing news from the capital."},
		},
	}, nil
}

func (c *Caption) ProductionProcess(ctx context.Context, input any) (map[string]any, error) {
	if c.llm == nil {
		return nil, agent.ErrProductionNotReady
	}
	url := inputURL(input)
	if url == "" {
		return nil, agent.Permanent(fmt.Errorf("caption: no media url in input"))
	}
	text, err := c.llm.Complete(ctx,
		"You are a broadcast captioning assistant. Produce clean, punctuated caption text for the described asset. Plain text only.",
		"Asset: "+url+"\nContext: "+inputText(input))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"url":          url,
		"language":     "en",
		"caption_file": url + ".vtt",
		"word_count":   len(strings.Fields(text)),
		"transcript":   text,
	}, nil
}

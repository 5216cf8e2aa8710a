package agents

import (
	"context"
	"strings"

	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/providers"
)

// Localize translates caption tracks into target languages with the house
// glossary applied.
type Localize struct {
	base
	llm *providers.Client
}

// NewLocalize creates the localize agent.
func NewLocalize(settings *config.Settings, llm *providers.Client) *Localize {
	return &Localize{
		base: base{
			key:          "localize",
			name:         "Localization Agent",
			description:  "Translates captions and metadata into target languages",
			integrations: []string{"openai"},
			settings:     settings,
		},
		llm: llm,
	}
}

// targetLanguage guesses the requested language from the input text.
func targetLanguage(input any) (code, name string) {
	text := strings.ToLower(inputText(input))
	for _, lang := range []struct{ code, name string }{
		{"es", "spanish"}, {"fr", "french"}, {"de", "german"},
		{"pt", "portuguese"}, {"ja", "japanese"}, {"ar", "arabic"},
	} {
		if strings.Contains(text, lang.name) || strings.Contains(text, " "+lang.code+" ") {
			return lang.code, lang.name
		}
	}
	return "es", "spanish"
}

func (l *Localize) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	code, name := targetLanguage(input)
	return map[string]any{
		"source_language":     "en",
		"target_language":     code,
		"target_name":         name,
		"segments_translated": 42,
		"glossary_hits":       3,
		"caption_file":        orDefault(inputURL(input), "https://media.example.com/assets/demo-segment.mp4") + "." + code + ".vtt",
	}, nil
}

func (l *Localize) ProductionProcess(ctx context.Context, input any) (map[string]any, error) {
	if l.llm == nil {
		return nil, agent.ErrProductionNotReady
	}
	code, name := targetLanguage(input)
	text, err := l.llm.Complete(ctx,
		"You are a broadcast translator. Translate the caption text into "+name+", keeping timing markers and line breaks intact.",
		inputText(input))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"source_language": "en",
		"target_language": code,
		"translation":     text,
	}, nil
}

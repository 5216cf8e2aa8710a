// Package agents contains the media-operations agents registered with the
// orchestrator. Each agent implements the dual-mode contract: the demo branch
// returns realistic deterministic output with no external I/O, the
// production branch talks to real systems and falls back to demo on
// transient failure.
package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/connectors"
	"github.com/mediaiq/miq/internal/providers"
)

// base carries the shared identity fields; concrete agents embed it.
type base struct {
	key          string
	name         string
	description  string
	integrations []string
	settings     *config.Settings
}

func (b *base) Key() string                    { return b.key }
func (b *base) Name() string                   { return b.name }
func (b *base) Description() string            { return b.description }
func (b *base) RequiredIntegrations() []string { return b.integrations }

// Validate accepts any non-empty input by default.
func (b *base) Validate(input any) bool {
	switch v := input.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

// ProductionProcess defaults to the not-ready sentinel; demo-only agents
// inherit it and the runtime downgrades the run.
func (b *base) ProductionProcess(ctx context.Context, input any) (map[string]any, error) {
	return nil, agent.ErrProductionNotReady
}

var urlRe = regexp.MustCompile(`https?://[^\s"'<>]+`)

// inputURL extracts a media URL from a string or structured input.
func inputURL(input any) string {
	switch v := input.(type) {
	case string:
		return urlRe.FindString(v)
	case map[string]any:
		if u, ok := v["url"].(string); ok {
			return u
		}
		if t, ok := v["text"].(string); ok {
			return urlRe.FindString(t)
		}
	}
	return ""
}

// inputText extracts free text from a string or structured input.
func inputText(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case map[string]any:
		if t, ok := v["text"].(string); ok {
			return t
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", input)
	}
}

// orDefault returns s, or fallback when s is empty.
func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// RegisterAll registers every MIQ agent. llm may be nil (demo-only); conns
// provides tool access for agents backed by connectors.
func RegisterAll(reg *agent.Registry, settings *config.Settings, llm *providers.Client, conns *connectors.Registry) {
	reg.Register(NewCaption(settings, llm))
	reg.Register(NewClip(settings))
	reg.Register(NewCompliance(settings, llm))
	reg.Register(NewArchive(settings, conns))
	reg.Register(NewSocial(settings, llm))
	reg.Register(NewLocalize(settings, llm))
	reg.Register(NewRights(settings))
	reg.Register(NewTrending(settings))
	reg.Register(NewDeepfake(settings))
	reg.Register(NewFactcheck(settings, llm))
	reg.Register(NewAudience(settings))
	reg.Register(NewProductionDirector(settings, llm))
	reg.Register(NewBrand(settings))
	reg.Register(NewCarbon(settings))
	reg.Register(NewIngest(settings, conns))
	reg.Register(NewSignal(settings))
	reg.Register(NewPlayout(settings, conns))
	reg.Register(NewOTT(settings))
	reg.Register(NewNewsroom(settings, conns))
	reg.Register(NewLiveFactCheck(settings, llm))
}

package agents

import (
	"context"
	"strings"
	"time"

	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/providers"
)

// Social drafts and schedules platform-specific posts for clips and stories.
type Social struct {
	base
	llm *providers.Client
}

// NewSocial creates the social agent.
func NewSocial(settings *config.Settings, llm *providers.Client) *Social {
	return &Social{
		base: base{
			key:          "social",
			name:         "Social Agent",
			description:  "Drafts platform-native posts and scheduling for clips and stories",
			integrations: []string{"openai"},
			settings:     settings,
		},
		llm: llm,
	}
}

func (s *Social) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	scheduled := time.Now().UTC().Add(45 * time.Minute).Format(time.RFC3339)
	return map[string]any{
		"posts": []any{
			map[string]any{
				"platform": "x",
				"text":     "\"We never expected this outcome\" — the moment everyone is replaying tonight 🎬",
				"hashtags": []any{"#Breaking", "#MustWatch"},
			},
			map[string]any{
				"platform": "instagram",
				"text":     "Behind the moment that stopped the studio. Full story at the link in bio.",
				"format":   "reel",
			},
			map[string]any{
				"platform": "youtube_shorts",
				"text":     "Studio erupts at live result — watch to the end",
			},
		},
		"scheduled_at": scheduled,
		"post_count":   3,
	}, nil
}

func (s *Social) ProductionProcess(ctx context.Context, input any) (map[string]any, error) {
	if s.llm == nil {
		return nil, agent.ErrProductionNotReady
	}
	text, err := s.llm.Complete(ctx,
		"You draft social posts for a broadcaster. Write one post each for X, Instagram and YouTube Shorts about the given story. Separate posts with a line containing only ---.",
		inputText(input))
	if err != nil {
		return nil, err
	}
	platforms := []string{"x", "instagram", "youtube_shorts"}
	var posts []any
	for i, part := range strings.Split(text, "---") {
		if i >= len(platforms) {
			break
		}
		if body := strings.TrimSpace(part); body != "" {
			posts = append(posts, map[string]any{"platform": platforms[i], "text": body})
		}
	}
	return map[string]any{
		"posts":        posts,
		"post_count":   len(posts),
		"scheduled_at": time.Now().UTC().Add(45 * time.Minute).Format(time.RFC3339),
	}, nil
}

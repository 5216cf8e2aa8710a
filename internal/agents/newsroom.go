package agents

import (
	"context"
	"fmt"

	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/connectors"
)

// NewsroomAgent bridges the newsroom computer system: reads rundowns and
// files wire items raised by other agents.
type NewsroomAgent struct {
	base
	conns *connectors.Registry
}

// NewNewsroom creates the newsroom agent.
func NewNewsroom(settings *config.Settings, conns *connectors.Registry) *NewsroomAgent {
	return &NewsroomAgent{
		base: base{
			key:         "newsroom",
			name:        "Newsroom Agent",
			description: "Reads rundowns and files wire items into the newsroom system",
			settings:    settings,
		},
		conns: conns,
	}
}

func (n *NewsroomAgent) Validate(input any) bool { return true }

func (n *NewsroomAgent) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	res := n.conns.CallTool(ctx, "newsroom_read_rundown", map[string]any{
		"show": "evening-news",
	})
	if !res.Success {
		return nil, fmt.Errorf("rundown read: %s", res.Error)
	}
	out := map[string]any{"note": inputText(input)}
	for k, v := range res.Data {
		out[k] = v
	}
	return out, nil
}

package connectors

import (
	"context"
	"time"
)

// Newsroom adapts the newsroom computer system (rundowns and wire copy).
type Newsroom struct {
	Base
}

// NewNewsroom creates the newsroom connector.
func NewNewsroom() *Newsroom {
	return &Newsroom{Base: NewBase("newsroom", "Newsroom System", CategoryNewsroom, "api_key", true)}
}

func (n *Newsroom) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "newsroom_read_rundown",
			Description: "Read the current rundown for a show",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"show": map[string]any{"type": "string"},
				},
			},
			ConnectorID: "newsroom",
			Operation:   OpRead,
		},
		{
			Name:        "newsroom_file_wire",
			Description: "File a wire item into the newsroom queue",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"slug": map[string]any{"type": "string"},
					"body": map[string]any{"type": "string"},
				},
				"required": []any{"slug"},
			},
			ConnectorID: "newsroom",
			Operation:   OpWrite,
			ParamKeys:   []string{"slug"},
		},
	}
}

func (n *Newsroom) Authenticate(ctx context.Context) error { return nil }

func (n *Newsroom) HealthCheck(ctx context.Context) Health {
	return Health{Status: StatusConnected, Message: "demo mode"}
}

func (n *Newsroom) Read(ctx context.Context, params map[string]any) (map[string]any, error) {
	return map[string]any{
		"show":       stringParam(params, "show", "evening-news"),
		"rundown_id": "RD-2081",
		"stories": []any{
			map[string]any{"slug": "OPEN-HEADLINES", "duration_sec": 40, "status": "ready"},
			map[string]any{"slug": "WX-FORECAST", "duration_sec": 110, "status": "draft"},
		},
	}, nil
}

func (n *Newsroom) Write(ctx context.Context, data, params map[string]any) (map[string]any, error) {
	slug := stringParam(data, "slug", stringParam(params, "slug", "UNSLUGGED"))
	return map[string]any{
		"filed":    true,
		"slug":     slug,
		"filed_at": time.Now().UTC().Format(time.RFC3339),
	}, nil
}

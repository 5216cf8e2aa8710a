package connectors

import (
	"context"
	"fmt"
	"time"
)

// MAM adapts a media asset management system (Avid-style). Ships demo-only:
// a production backend plugs in behind the same tool surface.
type MAM struct {
	Base
}

// NewMAM creates the MAM connector.
func NewMAM() *MAM {
	return &MAM{Base: NewBase("mam", "Media Asset Manager", CategoryMAM, "api_key", true)}
}

func (m *MAM) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "mam_search_assets",
			Description: "Search the media asset catalog by keyword and date range",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
					"limit": map[string]any{"type": "number"},
				},
				"required": []any{"query"},
			},
			ConnectorID: "mam",
			Operation:   OpRead,
		},
		{
			Name:        "mam_update_metadata",
			Description: "Write metadata fields onto an asset record",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"asset_id": map[string]any{"type": "string"},
					"fields":   map[string]any{"type": "object"},
				},
				"required": []any{"asset_id"},
			},
			ConnectorID: "mam",
			Operation:   OpWrite,
			ParamKeys:   []string{"asset_id"},
		},
	}
}

func (m *MAM) Authenticate(ctx context.Context) error { return nil }

func (m *MAM) HealthCheck(ctx context.Context) Health {
	return Health{Status: StatusConnected, Message: "demo mode"}
}

func (m *MAM) Read(ctx context.Context, params map[string]any) (map[string]any, error) {
	query := stringParam(params, "query", "")
	return map[string]any{
		"query": query,
		"assets": []any{
			map[string]any{"asset_id": "MAM-0001", "title": "Evening bulletin master", "duration_sec": 1810, "codec": "XDCAM HD422"},
			map[string]any{"asset_id": "MAM-0002", "title": "Stadium feed iso cam 3", "duration_sec": 5400, "codec": "ProRes 422"},
		},
	}, nil
}

func (m *MAM) Write(ctx context.Context, data, params map[string]any) (map[string]any, error) {
	assetID := stringParam(data, "asset_id", stringParam(params, "asset_id", ""))
	if assetID == "" {
		return nil, fmt.Errorf("mam_update_metadata: asset_id required")
	}
	return map[string]any{
		"asset_id":   assetID,
		"updated":    true,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}, nil
}

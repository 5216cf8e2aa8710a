package agents

import (
	"context"
	"fmt"

	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/connectors"
)

// ArchiveAgent catalogs finished content and answers search requests against
// the local asset catalog. It is backed by the archive connector in both
// modes, since the catalog lives on local disk.
type ArchiveAgent struct {
	base
	conns *connectors.Registry
}

// NewArchive creates the archive agent.
func NewArchive(settings *config.Settings, conns *connectors.Registry) *ArchiveAgent {
	return &ArchiveAgent{
		base: base{
			key:         "archive",
			name:        "Archive Agent",
			description: "Catalogs finished content with metadata and searches the asset archive",
			settings:    settings,
		},
		conns: conns,
	}
}

func (a *ArchiveAgent) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	return a.process(ctx, input)
}

func (a *ArchiveAgent) ProductionProcess(ctx context.Context, input any) (map[string]any, error) {
	return a.process(ctx, input)
}

func (a *ArchiveAgent) process(ctx context.Context, input any) (map[string]any, error) {
	if url := inputURL(input); url != "" {
		res := a.conns.CallTool(ctx, "archive_ingest", map[string]any{
			"title": orDefault(firstWords(inputText(input), 8), url),
			"url":   url,
			"tags":  "auto-cataloged",
		})
		if !res.Success {
			return nil, fmt.Errorf("archive ingest: %s", res.Error)
		}
		return map[string]any{
			"action":   "ingest",
			"asset_id": res.Data["asset_id"],
			"url":      url,
		}, nil
	}

	res := a.conns.CallTool(ctx, "archive_search", map[string]any{"query": inputText(input)})
	if !res.Success {
		return nil, fmt.Errorf("archive search: %s", res.Error)
	}
	out := map[string]any{"action": "search"}
	for k, v := range res.Data {
		out[k] = v
	}
	return out, nil
}

func firstWords(s string, n int) string {
	fields := []rune(s)
	words := 0
	for i, r := range fields {
		if r == ' ' {
			words++
			if words >= n {
				return string(fields[:i])
			}
		}
	}
	return s
}

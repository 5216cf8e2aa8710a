package agents

import (
	"context"
	"fmt"

	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/connectors"
)

// Ingest runs technical QC on arriving media and registers it in MAM.
type Ingest struct {
	base
	conns *connectors.Registry
}

// NewIngest creates the ingest agent.
func NewIngest(settings *config.Settings, conns *connectors.Registry) *Ingest {
	return &Ingest{
		base: base{
			key:         "ingest",
			name:        "Ingest Agent",
			description: "Runs technical QC on arriving media and registers assets",
			settings:    settings,
		},
		conns: conns,
	}
}

func (i *Ingest) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	url := orDefault(inputURL(input), "https://media.example.com/assets/demo-segment.mp4")
	out := map[string]any{
		"url":           url,
		"format":        "XDCAM HD422",
		"duration_sec":  1742,
		"loudness_lufs": -23.0,
		"qc_passed":     true,
		"qc_checks": []any{
			map[string]any{"name": "loudness_r128", "result": "pass"},
			map[string]any{"name": "black_frames", "result": "pass"},
			map[string]any{"name": "audio_phase", "result": "pass"},
		},
	}
	res := i.conns.CallTool(ctx, "mam_update_metadata", map[string]any{
		"asset_url": url,
		"fields":    map[string]any{"qc": "passed", "format": "XDCAM HD422"},
	})
	if !res.Success {
		return nil, fmt.Errorf("mam register: %s", res.Error)
	}
	out["mam_asset"] = res.Data
	return out, nil
}

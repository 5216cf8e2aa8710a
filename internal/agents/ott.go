package agents

import (
	"context"

	"github.com/mediaiq/miq/internal/config"
)

// OTT manages streaming packaging: manifests, renditions and DRM state.
type OTT struct {
	base
}

// NewOTT creates the OTT agent.
func NewOTT(settings *config.Settings) *OTT {
	return &OTT{base: base{
		key:         "ott",
		name:        "OTT Agent",
		description: "Manages streaming packaging: manifests, renditions and DRM",
		settings:    settings,
	}}
}

func (o *OTT) Validate(input any) bool { return true }

func (o *OTT) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	return map[string]any{
		"manifests": []any{
			map[string]any{"type": "hls", "url": "https://cdn.example.net/live/master.m3u8"},
			map[string]any{"type": "dash", "url": "https://cdn.example.net/live/master.mpd"},
		},
		"renditions": []any{
			"1080p@6.0Mbps", "720p@3.5Mbps", "540p@2.0Mbps", "360p@0.9Mbps",
		},
		"drm":            map[string]any{"widevine": true, "fairplay": true, "playready": true},
		"startup_time_s": 1.4,
		"rebuffer_ratio": 0.006,
	}, nil
}

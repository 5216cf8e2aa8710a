package memory

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// highValueKeys maps an agent key to the result-data keys worth keeping in
// its journal's output summary. Agents without an entry fall back to a sorted
// key listing.
var highValueKeys = map[string][]string{
	"caption":                {"language", "word_count", "caption_file", "confidence"},
	"clip":                   {"viral_moments", "clip_count", "total_duration"},
	"compliance":             {"issues", "garm_rating", "iab_categories"},
	"archive":                {"asset_id", "matches", "collection"},
	"social":                 {"posts", "platforms", "scheduled_at"},
	"localize":               {"target_language", "segments", "glossary_hits"},
	"rights":                 {"licenses", "violations", "territories"},
	"trending":               {"trends", "breaking_news", "sources"},
	"deepfake":               {"verdict", "confidence", "frames_analyzed"},
	"factcheck":              {"claims", "verdicts", "sources"},
	"audience":               {"segments", "peak_concurrent", "retention"},
	"ai_production_director": {"rundown", "camera_cues", "duration"},
	"brand":                  {"placements", "exposure_seconds", "sponsors"},
	"carbon":                 {"kwh", "co2_kg", "period"},
	"ingest":                 {"asset_id", "format", "duration", "loudness_lufs"},
	"signal":                 {"status", "scte35_events", "bitrate"},
	"playout":                {"channel", "action", "window"},
	"ott":                    {"manifests", "renditions", "drm"},
	"newsroom":               {"stories", "rundown_id", "wire_items"},
	"live_fact_check":        {"claims", "on_air", "latency_ms"},
}

// SummarizeOutput derives the one-line journal summary from a result payload
// using the agent's high-value-key map.
func SummarizeOutput(agentKey string, data map[string]any) string {
	if len(data) == 0 {
		return "-"
	}
	keys, ok := highValueKeys[agentKey]
	if !ok {
		keys = make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > 4 {
			keys = keys[:4]
		}
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, present := data[k]
		if !present {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", k, compactValue(v)))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

// SummarizeInput renders an opaque task input as a bounded one-liner.
func SummarizeInput(input any) string {
	switch v := input.(type) {
	case nil:
		return "-"
	case string:
		return oneLine(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%T", input)
		}
		return oneLine(string(b))
	}
}

func compactValue(v any) string {
	switch val := v.(type) {
	case string:
		if len(val) > 48 {
			return val[:48] + "…"
		}
		return val
	case []any:
		return fmt.Sprintf("[%d]", len(val))
	case map[string]any:
		return fmt.Sprintf("{%d}", len(val))
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

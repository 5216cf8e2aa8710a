package orchestrator

import (
	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/bus"
)

// maxChainHops bounds event chaining depth. The subscription table has no
// cycle detection (trending subscribes to BREAKING_NEWS, which trending
// itself can emit), so fan-out stops once a task's chain is this deep.
const maxChainHops = 8

// deriveEvents applies the fixed per-agent rule set to a successful result
// and returns the events to publish. This is the sole mechanism by which
// agent output feeds other agents.
func deriveEvents(agentKey string, res *agent.Result, hop int) []bus.Event {
	if res == nil || !res.Success {
		return nil
	}
	data := res.Data
	var events []bus.Event
	emit := func(kind bus.Kind, payload map[string]any) {
		events = append(events, bus.NewEvent(kind, payload, agentKey, hop))
	}

	switch agentKey {
	case "caption":
		emit(bus.KindCaptionComplete, data)
	case "clip":
		if nonEmptyList(data, "viral_moments") {
			emit(bus.KindClipDetected, data)
		}
	case "compliance":
		if anyItemMatches(data, "issues", func(item map[string]any) bool {
			return item["severity"] == "critical"
		}) {
			emit(bus.KindComplianceAlert, data)
		}
	case "trending":
		if anyItemMatches(data, "trends", func(item map[string]any) bool {
			return numValue(item["velocity_score"]) > 90
		}) {
			emit(bus.KindTrendingSpike, data)
		}
		if nonEmptyList(data, "breaking_news") {
			emit(bus.KindBreakingNews, data)
		}
	case "rights":
		if nonEmptyList(data, "violations") {
			emit(bus.KindViolationDetected, data)
		}
		if anyItemMatches(data, "licenses", func(item map[string]any) bool {
			return numValue(item["days_until_expiry"]) < 30
		}) {
			emit(bus.KindLicenseExpiring, data)
		}
	}
	return events
}

func listValue(data map[string]any, key string) []any {
	if data == nil {
		return nil
	}
	switch v := data[key].(type) {
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	default:
		return nil
	}
}

func nonEmptyList(data map[string]any, key string) bool {
	return len(listValue(data, key)) > 0
}

func anyItemMatches(data map[string]any, key string, pred func(map[string]any) bool) bool {
	for _, item := range listValue(data, key) {
		if m, ok := item.(map[string]any); ok && pred(m) {
			return true
		}
	}
	return false
}

func numValue(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

package gateway

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mediaiq/miq/internal/agent"
)

// followUp is a suggested next action attached to a result card.
type followUp struct {
	Label string
	Verb  string
	Agent string
}

// followUps maps a finished agent to the actions worth offering next.
var followUps = map[string][]followUp{
	"caption":    {{"Localize", "run", "localize"}, {"Archive it", "run", "archive"}},
	"clip":       {{"Draft posts", "run", "social"}, {"Brand check", "run", "compliance"}},
	"compliance": {{"Hold playout", "run", "playout"}, {"Notify newsroom", "run", "newsroom"}},
	"trending":   {{"Draft posts", "run", "social"}, {"Fact-check", "run", "factcheck"}},
	"rights":     {{"Archive audit", "run", "archive"}},
	"ingest":     {{"Caption it", "run", "caption"}, {"Run compliance", "run", "compliance"}},
	"factcheck":  {{"Live check", "run", "live_fact_check"}},
}

// ActionID builds the wire id for a follow-up button.
func ActionID(verb, agentKey string) string {
	return "miq_" + verb + "_" + agentKey
}

// ParseActionID inverts ActionID. ok is false for foreign ids.
func ParseActionID(id string) (verb, agentKey string, ok bool) {
	rest, found := strings.CutPrefix(id, "miq_")
	if !found {
		return "", "", false
	}
	verb, agentKey, found = strings.Cut(rest, "_")
	if !found || verb == "" || agentKey == "" {
		return "", "", false
	}
	return verb, agentKey, true
}

// LoadingText is the ephemeral placeholder shown while a command runs.
func LoadingText(command string) string {
	return "_Running /miq-" + command + "..._  ⏳"
}

// headline produces the one-line summary at the top of a result card.
func headline(res *agent.Result) string {
	icon := "✅"
	if !res.Success {
		icon = "❌"
	}
	mode := ""
	if res.Mode == agent.ModeDemo {
		mode = " (demo)"
	}
	return fmt.Sprintf("%s *%s*%s", icon, res.Agent, mode)
}

// resultFields flattens the scalar values of a result for field lists,
// keys sorted for stable output. Nested values render as counts.
func resultFields(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, fmt.Sprintf("*%s:* %s", k, compact(data[k])))
	}
	return fields
}

func compact(v any) string {
	switch x := v.(type) {
	case string:
		if len(x) > 120 {
			return x[:117] + "..."
		}
		return x
	case []any:
		return fmt.Sprintf("%d item(s)", len(x))
	case map[string]any:
		return fmt.Sprintf("%d field(s)", len(x))
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%.2f", x)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// jsonBlock renders data as a fenced code block, the generic fallback when no
// richer layout applies.
func jsonBlock(data map[string]any) string {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	if len(raw) > 2800 {
		raw = append(raw[:2800], []byte("\n... truncated")...)
	}
	return "```" + string(raw) + "```"
}

package gateway

import (
	"sort"

	"github.com/mediaiq/miq/internal/agent"
)

// TeamsResult renders an agent result as an Adaptive Card. The connector
// wraps it in the activity attachment envelope on send.
func TeamsResult(agentKey string, res *agent.Result) map[string]any {
	var body []any
	title := res.Agent
	if res.Mode == agent.ModeDemo {
		title += " (demo)"
	}
	if res.Success {
		body = append(body, adaptiveText(title, "Large", true))
		keys := make([]string, 0, len(res.Data))
		for k := range res.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) <= 8 {
			facts := make([]any, 0, len(keys))
			for _, k := range keys {
				facts = append(facts, map[string]any{"title": k, "value": compact(res.Data[k])})
			}
			body = append(body, map[string]any{"type": "FactSet", "facts": facts})
		} else {
			body = append(body, adaptiveText(jsonBlock(res.Data), "Default", false))
		}
	} else {
		body = append(body,
			adaptiveText("❌ "+title+" failed", "Large", true),
			adaptiveText(res.Error, "Default", false))
	}

	var actions []any
	for _, fu := range followUps[agentKey] {
		actions = append(actions, map[string]any{
			"type":  "Action.Submit",
			"title": fu.Label,
			"data":  map[string]any{"action_id": ActionID(fu.Verb, fu.Agent)},
		})
	}

	card := map[string]any{
		"type":    "AdaptiveCard",
		"version": "1.4",
		"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
		"body":    body,
	}
	if len(actions) > 0 {
		card["actions"] = actions
	}
	return card
}

func adaptiveText(text, size string, bold bool) map[string]any {
	el := map[string]any{"type": "TextBlock", "text": text, "wrap": true, "size": size}
	if bold {
		el["weight"] = "Bolder"
	}
	return el
}

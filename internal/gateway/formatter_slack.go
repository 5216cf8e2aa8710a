package gateway

import (
	"fmt"

	"github.com/mediaiq/miq/internal/agent"
)

// SlackResult renders an agent result as Block Kit blocks.
func SlackResult(agentKey string, res *agent.Result) map[string]any {
	if !res.Success {
		return SlackError(res.Agent, res.Error)
	}

	blocks := []any{
		section(headline(res)),
	}

	switch agentKey {
	case "caption":
		blocks = append(blocks, captionBlocks(res.Data)...)
	case "compliance":
		blocks = append(blocks, complianceBlocks(res.Data)...)
	case "trending":
		blocks = append(blocks, trendingBlocks(res.Data)...)
	default:
		if fields := resultFields(res.Data); len(fields) <= 8 {
			blocks = append(blocks, fieldSection(fields))
		} else {
			blocks = append(blocks, section(jsonBlock(res.Data)))
		}
	}

	if actions := slackActions(agentKey); actions != nil {
		blocks = append(blocks, actions)
	}
	blocks = append(blocks, contextLine(fmt.Sprintf("mode: %s · %s", res.Mode, res.Timestamp.Format("15:04:05 MST"))))

	return map[string]any{"blocks": blocks}
}

// SlackError renders a failure envelope.
func SlackError(agentName, errMsg string) map[string]any {
	return map[string]any{
		"blocks": []any{
			section(fmt.Sprintf("❌ *%s failed*", agentName)),
			section("> " + errMsg),
		},
	}
}

func captionBlocks(data map[string]any) []any {
	blocks := []any{fieldSection([]string{
		fmt.Sprintf("*Language:* %s", compact(data["language"])),
		fmt.Sprintf("*Words:* %s", compact(data["word_count"])),
		fmt.Sprintf("*File:* %s", compact(data["caption_file"])),
	})}
	if segs, ok := data["segments"].([]any); ok && len(segs) > 0 {
		if seg, ok := segs[0].(map[string]any); ok {
			blocks = append(blocks, section(fmt.Sprintf("> %s", compact(seg["text"]))))
		}
	}
	return blocks
}

func complianceBlocks(data map[string]any) []any {
	blocks := []any{section(fmt.Sprintf("*GARM rating:* %s", compact(data["garm_rating"])))}
	if issues, ok := data["issues"].([]any); ok {
		for _, it := range issues {
			issue, ok := it.(map[string]any)
			if !ok {
				continue
			}
			sev, _ := issue["severity"].(string)
			marker := "•"
			if sev == "critical" {
				marker = "🚨"
			}
			blocks = append(blocks, section(fmt.Sprintf("%s *%s* %s — %s",
				marker, sev, compact(issue["code"]), compact(issue["summary"]))))
		}
	}
	return blocks
}

func trendingBlocks(data map[string]any) []any {
	var blocks []any
	if trends, ok := data["trends"].([]any); ok {
		for _, tr := range trends {
			t, ok := tr.(map[string]any)
			if !ok {
				continue
			}
			blocks = append(blocks, section(fmt.Sprintf("📈 *%s* — velocity %s",
				compact(t["topic"]), compact(t["velocity_score"]))))
		}
	}
	if breaking, ok := data["breaking_news"].([]any); ok && len(breaking) > 0 {
		if b, ok := breaking[0].(map[string]any); ok {
			blocks = append(blocks, section(fmt.Sprintf("🔴 *Breaking:* %s", compact(b["headline"]))))
		}
	}
	return blocks
}

func slackActions(agentKey string) map[string]any {
	fus := followUps[agentKey]
	if len(fus) == 0 {
		return nil
	}
	elements := make([]any, 0, len(fus))
	for _, fu := range fus {
		elements = append(elements, map[string]any{
			"type":      "button",
			"action_id": ActionID(fu.Verb, fu.Agent),
			"text":      map[string]any{"type": "plain_text", "text": fu.Label},
		})
	}
	return map[string]any{"type": "actions", "elements": elements}
}

func section(markdown string) map[string]any {
	return map[string]any{
		"type": "section",
		"text": map[string]any{"type": "mrkdwn", "text": markdown},
	}
}

func fieldSection(fields []string) map[string]any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, map[string]any{"type": "mrkdwn", "text": f})
	}
	return map[string]any{"type": "section", "fields": out}
}

func contextLine(text string) map[string]any {
	return map[string]any{
		"type":     "context",
		"elements": []any{map[string]any{"type": "mrkdwn", "text": text}},
	}
}

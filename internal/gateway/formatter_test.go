package gateway

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mediaiq/miq/internal/agent"
)

func successResult(data map[string]any) *agent.Result {
	return &agent.Result{
		Success:   true,
		Agent:     "Caption Agent",
		Timestamp: time.Now().UTC(),
		Data:      data,
		Mode:      agent.ModeDemo,
	}
}

func TestActionIDRoundTrip(t *testing.T) {
	id := ActionID("run", "live_fact_check")
	if id != "miq_run_live_fact_check" {
		t.Fatalf("id = %q", id)
	}
	verb, key, ok := ParseActionID(id)
	if !ok || verb != "run" || key != "live_fact_check" {
		t.Fatalf("parsed %q/%q ok=%v", verb, key, ok)
	}
	if _, _, ok := ParseActionID("slack_builtin_button"); ok {
		t.Fatal("foreign action id accepted")
	}
}

func TestSlackResultHasBlocksAndActions(t *testing.T) {
	res := successResult(map[string]any{
		"language":     "en",
		"word_count":   1847,
		"caption_file": "https://x/a.vtt",
	})
	msg := SlackResult("caption", res)
	blocks, ok := msg["blocks"].([]any)
	if !ok || len(blocks) == 0 {
		t.Fatalf("msg = %v", msg)
	}

	raw, _ := json.Marshal(msg)
	body := string(raw)
	if !strings.Contains(body, "Caption Agent") || !strings.Contains(body, "(demo)") {
		t.Fatalf("headline missing: %s", body)
	}
	if !strings.Contains(body, "miq_run_localize") {
		t.Fatalf("follow-up button missing: %s", body)
	}
}

func TestSlackResultFailure(t *testing.T) {
	res := &agent.Result{Success: false, Agent: "Rights Agent", Error: "catalog offline", Mode: agent.ModeDemo}
	raw, _ := json.Marshal(SlackResult("rights", res))
	if !strings.Contains(string(raw), "catalog offline") {
		t.Fatalf("error text missing: %s", raw)
	}
}

func TestSlackResultGenericFallback(t *testing.T) {
	data := map[string]any{}
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		data[k] = k
	}
	raw, _ := json.Marshal(SlackResult("ott", successResult(data)))
	if !strings.Contains(string(raw), "```") {
		t.Fatalf("wide payloads should fall back to a code block: %s", raw)
	}
}

func TestTeamsResultCard(t *testing.T) {
	card := TeamsResult("compliance", successResult(map[string]any{"garm_rating": "high_risk"}))
	if card["type"] != "AdaptiveCard" {
		t.Fatalf("card = %v", card)
	}
	raw, _ := json.Marshal(card)
	if !strings.Contains(string(raw), "miq_run_playout") {
		t.Fatalf("follow-up action missing: %s", raw)
	}
}

func TestLoadingText(t *testing.T) {
	if got := LoadingText("caption"); !strings.Contains(got, "/miq-caption") {
		t.Fatalf("loading = %q", got)
	}
}

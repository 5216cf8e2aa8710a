package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/agents"
	"github.com/mediaiq/miq/internal/bus"
	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/connectors"
	"github.com/mediaiq/miq/internal/memory"
	"github.com/mediaiq/miq/internal/orchestrator"
)

func newTestServer(t *testing.T, settings *config.Settings) *Server {
	t.Helper()
	if settings == nil {
		settings = config.Defaults()
	}
	settings.MemoryDir = t.TempDir()

	journal, err := memory.NewJournal(settings.MemoryDir, 100, 50)
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	conns := connectors.NewRegistry()
	conns.Register(connectors.NewSlack(settings))
	conns.Register(connectors.NewTeams(settings))

	registry := agent.NewRegistry()
	agents.RegisterAll(registry, settings, nil, conns)

	b := bus.New(bus.DefaultSubscriptions())
	orch := orchestrator.New(settings, registry, agent.NewRuntime(settings), journal, b)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	orch.Start(ctx)

	return NewServer(settings, orch, registry, NewRouter(registry, nil), conns)
}

func TestSlackURLVerificationEcho(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t, nil).Handler())
	defer srv.Close()

	payload := `{"type":"url_verification","challenge":"c0ffee"}`
	resp, err := http.Post(srv.URL+"/slack/events", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	if out["challenge"] != "c0ffee" {
		t.Fatalf("challenge = %v", out["challenge"])
	}
}

func TestSlackCommandAcksWithPlaceholder(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t, nil).Handler())
	defer srv.Close()

	form := url.Values{
		"command":      {"/miq-caption"},
		"text":         {"https://media.example.com/a.mp4"},
		"user_id":      {"U1"},
		"channel_id":   {"C1"},
		"response_url": {"https://hooks.slack.example/abc"},
	}
	resp, err := http.Post(srv.URL+"/slack/commands",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	if out["response_type"] != "ephemeral" {
		t.Fatalf("ack = %v", out)
	}
	text, _ := out["text"].(string)
	if !strings.Contains(text, "/miq-caption") {
		t.Fatalf("placeholder = %q", text)
	}
}

func TestSlackCommandUnknownGetsHelp(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t, nil).Handler())
	defer srv.Close()

	form := url.Values{"command": {"/deploy"}, "user_id": {"U1"}, "channel_id": {"C1"}}
	resp, err := http.Post(srv.URL+"/slack/commands",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Slash Commands") {
		t.Fatalf("help missing: %s", body)
	}
}

func TestHelpReplyIsMarkdownBlock(t *testing.T) {
	srv := newTestServer(t, nil)
	payload := srv.systemPayload("help")

	blocks, ok := payload["blocks"].([]any)
	if !ok || len(blocks) == 0 {
		t.Fatalf("payload = %v", payload)
	}
	block, _ := blocks[0].(map[string]any)
	if block["type"] != "section" {
		t.Fatalf("block = %v", block)
	}
	text, _ := block["text"].(map[string]any)
	if text["type"] != "mrkdwn" {
		t.Fatalf("text = %v", text)
	}
	md, _ := text["text"].(string)
	if !strings.Contains(md, "Slash Commands") || !strings.Contains(md, "/miq-caption") {
		t.Fatalf("help markdown = %q", md)
	}
}

func TestSignedWebhookRejectsBadSignature(t *testing.T) {
	settings := config.Defaults()
	settings.SlackBotToken = "xoxb-test"
	settings.SlackSigningSecret = "topsecret"
	srv := httptest.NewServer(newTestServer(t, settings).Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/slack/events",
		strings.NewReader(`{"type":"event_callback"}`))
	req.Header.Set("X-Slack-Request-Timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	req.Header.Set("X-Slack-Signature", "v0=deadbeef")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestTeamsMessageAccepted(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t, nil).Handler())
	defer srv.Close()

	activity := `{"type":"message","text":"check the signal feeds","serviceUrl":"https://smba.example","from":{"id":"u"},"conversation":{"id":"19:abc"}}`
	resp, err := http.Post(srv.URL+"/teams/messages", "application/json", strings.NewReader(activity))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestHealthAndStatusEndpoints(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/gateway/health")
	if err != nil {
		t.Fatal(err)
	}
	var health map[string]any
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if health["status"] != "ok" {
		t.Fatalf("health = %v", health)
	}

	resp, err = http.Get(srv.URL + "/gateway/status")
	if err != nil {
		t.Fatal(err)
	}
	var status map[string]any
	json.NewDecoder(resp.Body).Decode(&status)
	resp.Body.Close()
	if _, ok := status["orchestrator"]; !ok {
		t.Fatalf("status = %v", status)
	}
	if n, _ := status["agents"].(float64); int(n) != 20 {
		t.Fatalf("agents = %v, want 20", status["agents"])
	}
}

package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/mediaiq/miq/internal/config"
)

const slackAPIBase = "https://slack.com/api"

// Slack adapts the Slack Web API as a channel connector. Outbound sends are
// rate limited to stay inside Slack's ~1 msg/sec per-channel ceiling.
type Slack struct {
	Base
	token          string
	defaultChannel string
	httpc          *http.Client
	limiter        *rate.Limiter
}

// NewSlack creates the Slack connector. Runs in demo mode unless the bot
// token and signing secret are configured.
func NewSlack(settings *config.Settings) *Slack {
	return &Slack{
		Base:           NewBase("slack", "Slack", CategoryChannel, "bot_token", !settings.SlackConfigured()),
		token:          settings.SlackBotToken,
		defaultChannel: settings.SlackDefaultChannel,
		httpc:          &http.Client{Timeout: settings.APITimeout()},
		limiter:        rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

func (s *Slack) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "slack_post_message",
			Description: "Post a message (text and optional Block Kit blocks) to a Slack channel or response_url",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"channel":      map[string]any{"type": "string"},
					"text":         map[string]any{"type": "string"},
					"blocks":       map[string]any{"type": "array"},
					"response_url": map[string]any{"type": "string"},
				},
			},
			ConnectorID: "slack",
			Operation:   OpWrite,
			ParamKeys:   []string{"channel", "response_url"},
		},
		{
			Name:        "slack_read_channel",
			Description: "Read recent messages from a Slack channel",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"channel": map[string]any{"type": "string"},
					"limit":   map[string]any{"type": "number"},
				},
			},
			ConnectorID: "slack",
			Operation:   OpRead,
		},
	}
}

func (s *Slack) Authenticate(ctx context.Context) error {
	if s.Demo() {
		return nil
	}
	var resp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
		Team  string `json:"team"`
	}
	if err := s.call(ctx, "auth.test", map[string]any{}, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("slack auth.test: %s", resp.Error)
	}
	return nil
}

func (s *Slack) HealthCheck(ctx context.Context) Health {
	start := time.Now()
	if s.Demo() {
		return Health{Status: StatusConnected, LatencyMS: 0, Message: "demo mode"}
	}
	err := s.Authenticate(ctx)
	h := Health{LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		h.Status = StatusError
		h.Message = err.Error()
	} else {
		h.Status = StatusConnected
	}
	return h
}

// Read fetches recent channel history.
func (s *Slack) Read(ctx context.Context, params map[string]any) (map[string]any, error) {
	channel := stringParam(params, "channel", s.defaultChannel)
	if s.Demo() {
		return map[string]any{
			"channel": channel,
			"messages": []any{
				map[string]any{"user": "U_DEMO", "text": "demo history entry", "ts": "0"},
			},
		}, nil
	}
	var resp struct {
		OK       bool             `json:"ok"`
		Error    string           `json:"error"`
		Messages []map[string]any `json:"messages"`
	}
	if err := s.call(ctx, "conversations.history", map[string]any{"channel": channel}, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("slack conversations.history: %s", resp.Error)
	}
	msgs := make([]any, len(resp.Messages))
	for i, m := range resp.Messages {
		msgs[i] = m
	}
	return map[string]any{"channel": channel, "messages": msgs}, nil
}

// Write posts a message. When params carry a response_url the payload goes
// there (slash-command replies); otherwise chat.postMessage is used.
func (s *Slack) Write(ctx context.Context, data, params map[string]any) (map[string]any, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload := map[string]any{}
	if text := stringParam(data, "text", ""); text != "" {
		payload["text"] = text
	}
	if blocks, ok := data["blocks"]; ok {
		payload["blocks"] = blocks
	}

	if responseURL := stringParam(params, "response_url", ""); responseURL != "" {
		if s.Demo() {
			return map[string]any{"delivered": true, "via": "response_url"}, nil
		}
		return s.postJSON(ctx, responseURL, payload)
	}

	channel := stringParam(params, "channel", s.defaultChannel)
	payload["channel"] = channel
	if s.Demo() {
		return map[string]any{"delivered": true, "channel": channel, "ts": fmt.Sprint(time.Now().Unix())}, nil
	}

	var resp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
		TS    string `json:"ts"`
	}
	if err := s.call(ctx, "chat.postMessage", payload, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("slack chat.postMessage: %s", resp.Error)
	}
	return map[string]any{"delivered": true, "channel": channel, "ts": resp.TS}, nil
}

// call POSTs a JSON body to a Slack Web API method with the bot token.
func (s *Slack) call(ctx context.Context, method string, body map[string]any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, slackAPIBase+"/"+method, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("slack %s: %w", method, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (s *Slack) postJSON(ctx context.Context, url string, payload map[string]any) (map[string]any, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("slack response_url: status %d", resp.StatusCode)
	}
	return map[string]any{"delivered": true, "via": "response_url"}, nil
}

func stringParam(m map[string]any, key, fallback string) string {
	if m == nil {
		return fallback
	}
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

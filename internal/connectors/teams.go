package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mediaiq/miq/internal/config"
)

const teamsTokenURL = "https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token"

// Teams adapts the Bot Framework connector API. Outbound activities are
// signed with a client-credentials bearer token cached until shortly before
// expiry.
type Teams struct {
	Base
	appID    string
	password string
	httpc    *http.Client

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewTeams creates the Teams connector. Demo mode unless app credentials are
// configured.
func NewTeams(settings *config.Settings) *Teams {
	return &Teams{
		Base:     NewBase("teams", "Microsoft Teams", CategoryChannel, "oauth_client_credentials", !settings.TeamsConfigured()),
		appID:    settings.TeamsAppID,
		password: settings.TeamsAppPassword,
		httpc:    &http.Client{Timeout: settings.APITimeout()},
	}
}

func (t *Teams) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "teams_send_message",
			Description: "Send a Bot Framework activity (text or Adaptive Card) to a Teams conversation",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"service_url":     map[string]any{"type": "string"},
					"conversation_id": map[string]any{"type": "string"},
					"text":            map[string]any{"type": "string"},
					"card":            map[string]any{"type": "object"},
				},
			},
			ConnectorID: "teams",
			Operation:   OpWrite,
			ParamKeys:   []string{"conversation_id", "service_url"},
		},
	}
}

func (t *Teams) Authenticate(ctx context.Context) error {
	if t.Demo() {
		return nil
	}
	_, err := t.bearer(ctx)
	return err
}

func (t *Teams) HealthCheck(ctx context.Context) Health {
	start := time.Now()
	if t.Demo() {
		return Health{Status: StatusConnected, Message: "demo mode"}
	}
	_, err := t.bearer(ctx)
	h := Health{LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		h.Status = StatusError
		h.Message = err.Error()
	} else {
		h.Status = StatusConnected
	}
	return h
}

// Read is not meaningful for the push-style Bot Framework surface; inbound
// activities arrive on the webhook instead.
func (t *Teams) Read(ctx context.Context, params map[string]any) (map[string]any, error) {
	return map[string]any{"note": "teams is push-only; inbound arrives via /teams/messages"}, nil
}

// Write sends one activity to the conversation's service URL.
func (t *Teams) Write(ctx context.Context, data, params map[string]any) (map[string]any, error) {
	serviceURL := strings.TrimSuffix(stringParam(params, "service_url", ""), "/")
	convID := stringParam(params, "conversation_id", "")

	activity := map[string]any{"type": "message"}
	if text := stringParam(data, "text", ""); text != "" {
		activity["text"] = text
	}
	if card, ok := data["card"].(map[string]any); ok {
		activity["attachments"] = []any{map[string]any{
			"contentType": "application/vnd.microsoft.card.adaptive",
			"content":     card,
		}}
	}

	if t.Demo() {
		return map[string]any{"delivered": true, "conversation_id": convID}, nil
	}
	if serviceURL == "" || convID == "" {
		return nil, fmt.Errorf("teams write: service_url and conversation_id required")
	}

	bearer, err := t.bearer(ctx)
	if err != nil {
		return nil, err
	}
	buf, err := json.Marshal(activity)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/v3/conversations/%s/activities", serviceURL, url.PathEscape(convID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := t.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("teams send: status %d", resp.StatusCode)
	}
	return map[string]any{"delivered": true, "conversation_id": convID}, nil
}

// bearer returns a cached client-credentials token, refreshing it when it is
// within a minute of expiry.
func (t *Teams) bearer(ctx context.Context) (string, error) {
	t.tokenMu.Lock()
	defer t.tokenMu.Unlock()
	if t.token != "" && time.Now().Before(t.tokenExpiry.Add(-time.Minute)) {
		return t.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {t.appID},
		"client_secret": {t.password},
		"scope":         {"https://api.botframework.com/.default"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, teamsTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("teams token: %w", err)
	}
	defer resp.Body.Close()
	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Error       string `json:"error_description"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("teams token: %s", firstNonEmpty(body.Error, resp.Status))
	}
	t.token = body.AccessToken
	t.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	return t.token, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Package gateway is the chat-facing surface of the control plane: signed
// Slack and Teams webhooks in, routed agent tasks through the orchestrator,
// formatted cards back out, plus the operational endpoints (health, status,
// event stream).
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/bus"
	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/connectors"
	"github.com/mediaiq/miq/internal/orchestrator"
)

const (
	maxWebhookBody = 1 << 20
	resultWait     = 2 * time.Minute
)

// Server is the gateway HTTP server.
type Server struct {
	settings *config.Settings
	orch     *orchestrator.Orchestrator
	agents   *agent.Registry
	router   *Router
	conv     *Conversations
	conns    *connectors.Registry
	limiter  *webhookLimiter
	upgrader websocket.Upgrader
	tracer   trace.Tracer

	startedAt time.Time
	httpSrv   *http.Server
}

// NewServer wires the gateway over an already-started orchestrator.
func NewServer(settings *config.Settings, orch *orchestrator.Orchestrator, agents *agent.Registry, router *Router, conns *connectors.Registry) *Server {
	return &Server{
		settings: settings,
		orch:     orch,
		agents:   agents,
		router:   router,
		conv:     NewConversations(),
		conns:    conns,
		limiter:  newWebhookLimiter(10, 20),
		tracer:   otel.Tracer("github.com/mediaiq/miq/internal/gateway"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Operational dashboard endpoint; origin policy is the reverse
			// proxy's problem.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		startedAt: time.Now().UTC(),
	}
}

// Conversations exposes the session store (tests and status).
func (s *Server) Conversations() *Conversations { return s.conv }

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /slack/events", s.limiter.middleware(s.handleSlackEvents))
	mux.HandleFunc("POST /slack/commands", s.limiter.middleware(s.handleSlackCommands))
	mux.HandleFunc("POST /slack/actions", s.limiter.middleware(s.handleSlackActions))
	mux.HandleFunc("POST /teams/messages", s.limiter.middleware(s.handleTeamsMessages))
	mux.HandleFunc("GET /gateway/health", s.handleHealth)
	mux.HandleFunc("GET /gateway/status", s.handleStatus)
	mux.HandleFunc("GET /gateway/events", s.handleEvents)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.settings.Host, s.settings.Port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.conv.Sweep(ctx)
	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpSrv.Shutdown(shCtx)
	}()

	slog.Info("gateway listening", "addr", addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// readSignedBody reads the raw body and verifies the Slack signature when a
// signing secret is configured. Unsigned requests are only accepted without
// a secret (local development).
func (s *Server) readSignedBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return nil, false
	}
	if secret := s.settings.SlackSigningSecret; secret != "" {
		ts := r.Header.Get("X-Slack-Request-Timestamp")
		sig := r.Header.Get("X-Slack-Signature")
		if err := VerifySlackSignature(secret, ts, sig, body); err != nil {
			slog.Warn("slack signature rejected", "error", err, "remote", r.RemoteAddr)
			http.Error(w, "invalid signature", http.StatusForbidden)
			return nil, false
		}
	}
	return body, true
}

// handleSlackEvents answers the Events API: URL verification challenges and
// mention/message callbacks.
func (s *Server) handleSlackEvents(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readSignedBody(w, r)
	if !ok {
		return
	}

	var envelope struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
		Event     struct {
			Type    string `json:"type"`
			Text    string `json:"text"`
			User    string `json:"user"`
			Channel string `json:"channel"`
			BotID   string `json:"bot_id"`
		} `json:"event"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	if envelope.Type == "url_verification" {
		writeJSON(w, map[string]any{"challenge": envelope.Challenge})
		return
	}

	w.WriteHeader(http.StatusOK)
	ev := envelope.Event
	if envelope.Type != "event_callback" || ev.BotID != "" || ev.User == "" {
		return
	}
	if ev.Type != "app_mention" && ev.Type != "message" {
		return
	}

	text := stripMention(ev.Text)
	go s.dispatchSlack(ev.Channel, ev.User, "", text)
}

// handleSlackCommands acknowledges within Slack's 3-second window with an
// ephemeral placeholder, then delivers the real result to the response_url.
func (s *Server) handleSlackCommands(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readSignedBody(w, r)
	if !ok {
		return
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	command := form.Get("command")
	text := form.Get("text")
	rt, known := s.router.ParseSlash(command, text)
	if !known {
		help := s.systemPayload("help")
		help["response_type"] = "ephemeral"
		writeJSON(w, help)
		return
	}

	writeJSON(w, map[string]any{
		"response_type": "ephemeral",
		"text":          LoadingText(rt.Command),
	})
	go s.dispatchSlackRoute(form.Get("channel_id"), form.Get("user_id"), form.Get("response_url"),
		strings.TrimSpace(command+" "+text), rt)
}

// handleSlackActions handles Block Kit button clicks.
func (s *Server) handleSlackActions(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readSignedBody(w, r)
	if !ok {
		return
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	var payload struct {
		Type    string `json:"type"`
		User    struct{ ID string }
		Channel struct{ ID string }
		Actions []struct {
			ActionID string `json:"action_id"`
		} `json:"actions"`
		ResponseURL string `json:"response_url"`
	}
	if err := json.Unmarshal([]byte(form.Get("payload")), &payload); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	if payload.Type != "block_actions" || len(payload.Actions) == 0 {
		return
	}
	go s.dispatchAction(payload.Channel.ID, payload.User.ID, payload.ResponseURL, payload.Actions[0].ActionID)
}

// handleTeamsMessages receives Bot Framework activities.
func (s *Server) handleTeamsMessages(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	var activity struct {
		Type         string `json:"type"`
		Text         string `json:"text"`
		ServiceURL   string `json:"serviceUrl"`
		From         struct{ ID string }
		Conversation struct{ ID string }
		Value        struct {
			ActionID string `json:"action_id"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &activity); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	switch {
	case activity.Value.ActionID != "":
		go s.dispatchTeamsAction(activity.Conversation.ID, activity.From.ID, activity.ServiceURL, activity.Value.ActionID)
	case activity.Type == "message" && strings.TrimSpace(activity.Text) != "":
		go s.dispatchTeams(activity.Conversation.ID, activity.From.ID, activity.ServiceURL, stripMention(activity.Text))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":        "ok",
		"conversations": s.conv.Count(),
		"uptime_s":      int(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.orch.Stats()
	connStats := make([]map[string]any, 0)
	for _, id := range s.conns.ListIDs() {
		reqs, errs := s.conns.Counters(id)
		connStats = append(connStats, map[string]any{
			"id":       id,
			"status":   string(s.conns.Status(id)),
			"mode":     string(s.conns.Get(id).Mode()),
			"requests": reqs,
			"errors":   errs,
		})
	}
	writeJSON(w, map[string]any{
		"orchestrator":  stats,
		"events":        s.orch.Bus().PublishedCounts(),
		"agents":        len(s.agents.Keys()),
		"conversations": s.conv.Count(),
		"connectors":    connStats,
		"uptime_s":      int(time.Since(s.startedAt).Seconds()),
	})
}

// handleEvents streams every bus event to a websocket client.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	id := "ws:" + uuid.NewString()
	events := make(chan bus.Event, 64)
	s.orch.Bus().Listen(id, func(ev bus.Event) {
		select {
		case events <- ev:
		default: // slow client, drop rather than block publishers
		}
	})
	defer func() {
		s.orch.Bus().Unlisten(id)
		conn.Close()
	}()

	// Reader only to notice the close. The events channel is never closed;
	// the listener may fire between Unlisten and teardown.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case ev := <-events:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

// --- dispatch paths -------------------------------------------------------

func (s *Server) dispatchSlack(channelID, userID, responseURL, text string) {
	rt := s.router.Resolve(context.Background(), text)
	s.dispatchSlackRoute(channelID, userID, responseURL, text, rt)
}

func (s *Server) dispatchSlackRoute(channelID, userID, responseURL, text string, rt Route) {
	ctx, span := s.tracer.Start(context.Background(), "webhook.slack")
	span.SetAttributes(attribute.String("route.agent", rt.AgentKey), attribute.Int("route.tier", rt.Tier))
	defer span.End()

	sess := s.conv.Touch("slack", channelID, userID)
	s.conv.AddTurn(sess, "user", text, rt.AgentKey)

	send := func(payload map[string]any) {
		params := map[string]any{"channel": channelID}
		if responseURL != "" {
			params["response_url"] = responseURL
		}
		for k, v := range payload {
			params[k] = v
		}
		res := s.conns.CallTool(ctx, "slack_post_message", params)
		if !res.Success {
			slog.Warn("slack delivery failed", "error", res.Error, "channel", channelID)
		}
	}

	if rt.System != "" {
		send(s.systemPayload(rt.System))
		return
	}

	t := s.runRoute(sess, rt)
	if t == nil || t.Result == nil {
		send(map[string]any{"text": "⏱️ The task is taking longer than expected; check /miq-status."})
		return
	}
	s.conv.AddTurn(sess, "agent", t.Result.Agent+" finished", rt.AgentKey)
	if t.Result.Success {
		s.conv.SetResult(sess, t.Result.Data)
	}
	send(SlackResult(rt.AgentKey, t.Result))
}

func (s *Server) dispatchAction(channelID, userID, responseURL, actionID string) {
	verb, agentKey, ok := ParseActionID(actionID)
	if !ok {
		slog.Debug("ignoring foreign action", "action_id", actionID)
		return
	}
	rt := Route{AgentKey: agentKey, Command: commandFor(agentKey), Tier: 1, Confidence: 1,
		Params: map[string]any{"text": verb}}
	s.conv.SetPendingAction(s.conv.Touch("slack", channelID, userID), actionID)
	s.dispatchSlackRoute(channelID, userID, responseURL, s.router.Slash(rt), rt)
}

func (s *Server) dispatchTeams(conversationID, userID, serviceURL, text string) {
	rt := s.router.Resolve(context.Background(), text)
	s.dispatchTeamsRoute(conversationID, userID, serviceURL, text, rt)
}

func (s *Server) dispatchTeamsAction(conversationID, userID, serviceURL, actionID string) {
	verb, agentKey, ok := ParseActionID(actionID)
	if !ok {
		return
	}
	rt := Route{AgentKey: agentKey, Command: commandFor(agentKey), Tier: 1, Confidence: 1,
		Params: map[string]any{"text": verb}}
	s.conv.SetPendingAction(s.conv.Touch("teams", conversationID, userID), actionID)
	s.dispatchTeamsRoute(conversationID, userID, serviceURL, s.router.Slash(rt), rt)
}

func (s *Server) dispatchTeamsRoute(conversationID, userID, serviceURL, text string, rt Route) {
	ctx, span := s.tracer.Start(context.Background(), "webhook.teams")
	span.SetAttributes(attribute.String("route.agent", rt.AgentKey), attribute.Int("route.tier", rt.Tier))
	defer span.End()

	sess := s.conv.Touch("teams", conversationID, userID)
	s.conv.AddTurn(sess, "user", text, rt.AgentKey)

	send := func(payload map[string]any) {
		params := map[string]any{
			"conversation_id": conversationID,
			"service_url":     serviceURL,
		}
		for k, v := range payload {
			params[k] = v
		}
		res := s.conns.CallTool(ctx, "teams_send_message", params)
		if !res.Success {
			slog.Warn("teams delivery failed", "error", res.Error, "conversation", conversationID)
		}
	}

	if rt.System != "" {
		send(map[string]any{"text": s.systemReply(rt.System)})
		return
	}

	t := s.runRoute(sess, rt)
	if t == nil || t.Result == nil {
		send(map[string]any{"text": "The task is taking longer than expected."})
		return
	}
	s.conv.AddTurn(sess, "agent", t.Result.Agent+" finished", rt.AgentKey)
	if t.Result.Success {
		s.conv.SetResult(sess, t.Result.Data)
	}
	send(map[string]any{"card": TeamsResult(rt.AgentKey, t.Result)})
}

// runRoute submits the routed task and waits for its terminal state.
func (s *Server) runRoute(sess *Session, rt Route) *orchestrator.Task {
	params := s.conv.ResolveParams(sess, rt.Params)
	done := make(chan *orchestrator.Task, 1)
	s.orch.SubmitWithCallback(rt.AgentKey, params, orchestrator.PriorityHigh,
		"gateway:"+sess.Platform, func(t *orchestrator.Task) { done <- t })
	select {
	case t := <-done:
		return t
	case <-time.After(resultWait):
		return nil
	}
}

// --- system command replies ----------------------------------------------

// systemPayload renders a system command reply as a markdown section block,
// with the plain text kept as the notification fallback.
func (s *Server) systemPayload(cmd string) map[string]any {
	text := s.systemReply(cmd)
	return map[string]any{"text": text, "blocks": []any{section(text)}}
}

func (s *Server) systemReply(cmd string) string {
	switch cmd {
	case "status":
		return s.statusText()
	case "connectors":
		return s.connectorsText()
	default:
		return s.helpText()
	}
}

func (s *Server) statusText() string {
	st := s.orch.Stats()
	return fmt.Sprintf(
		"*MIQ status*\nqueue: %d · running: %d\nprocessed: %d · failed: %d · cancelled: %d\nevents published: %d\nconversations: %d\nuptime: %s",
		st.QueueDepth, st.Running, st.Processed, st.Failed, st.Cancelled,
		st.EventsPublished, s.conv.Count(),
		time.Since(s.startedAt).Truncate(time.Second))
}

func (s *Server) connectorsText() string {
	var b strings.Builder
	b.WriteString("*Connectors*\n")
	for _, id := range s.conns.ListIDs() {
		reqs, errs := s.conns.Counters(id)
		fmt.Fprintf(&b, "• %s — %s (%s) · %d req · %d err\n",
			id, s.conns.Status(id), s.conns.Get(id).Mode(), reqs, errs)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Server) helpText() string {
	cmds := make([]string, 0, len(slashToAgent))
	for cmd := range slashToAgent {
		cmds = append(cmds, cmd)
	}
	sort.Strings(cmds)
	var b strings.Builder
	b.WriteString("*MIQ Slash Commands*\n")
	for _, cmd := range cmds {
		a := s.agents.Get(slashToAgent[cmd])
		if a == nil {
			continue
		}
		fmt.Fprintf(&b, "• `/miq-%s` — %s\n", cmd, a.Description())
	}
	b.WriteString("• `/miq-status` — orchestrator counters\n")
	b.WriteString("• `/miq-connectors` — connector health\n")
	b.WriteString("Or just describe what you need; I will route it.")
	return b.String()
}

// stripMention removes leading <@U...> bot mentions from event text.
func stripMention(text string) string {
	t := strings.TrimSpace(text)
	for strings.HasPrefix(t, "<@") {
		end := strings.IndexByte(t, '>')
		if end < 0 {
			break
		}
		t = strings.TrimSpace(t[end+1:])
	}
	return t
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

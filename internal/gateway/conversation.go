package gateway

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	maxTurns      = 20
	sessionTTL    = 30 * time.Minute
	sweepInterval = 5 * time.Minute
)

// Turn is one exchange half in a conversation.
type Turn struct {
	Role string    `json:"role"` // "user" or "agent"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session is the per-user conversation state on one channel. It lets
// follow-up messages omit parameters the user already gave ("now caption it").
type Session struct {
	Platform  string `json:"platform"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Turns     []Turn `json:"turns"`
	LastURL   string `json:"last_url,omitempty"`
	LastAgent string `json:"last_agent,omitempty"`
	// LastResult is the most recent successful agent output, so follow-up
	// actions ("archive it") can reference what was just produced.
	LastResult map[string]any `json:"last_result,omitempty"`
	// PendingAction holds a clicked button's action id until its task lands.
	PendingAction string    `json:"pending_action,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Conversations tracks sessions keyed by platform, channel and user.
// Sessions are in-memory only and expire after 30 minutes of silence.
type Conversations struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewConversations creates an empty session store.
func NewConversations() *Conversations {
	return &Conversations{sessions: make(map[string]*Session)}
}

func sessionKey(platform, channelID, userID string) string {
	return platform + "|" + channelID + "|" + userID
}

// Touch returns the live session for the triple, creating one if absent or
// expired.
func (c *Conversations) Touch(platform, channelID, userID string) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := sessionKey(platform, channelID, userID)
	s, ok := c.sessions[key]
	if !ok || time.Since(s.UpdatedAt) > sessionTTL {
		s = &Session{Platform: platform, ChannelID: channelID, UserID: userID}
		c.sessions[key] = s
	}
	s.UpdatedAt = time.Now().UTC()
	return s
}

// AddTurn appends a turn, keeping the last maxTurns and remembering the most
// recent media URL and agent for parameter carry-over.
func (c *Conversations) AddTurn(s *Session, role, text, agentKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s.Turns = append(s.Turns, Turn{Role: role, Text: text, At: time.Now().UTC()})
	if len(s.Turns) > maxTurns {
		s.Turns = s.Turns[len(s.Turns)-maxTurns:]
	}
	if u := urlPattern.FindString(text); u != "" {
		s.LastURL = u
	}
	if agentKey != "" {
		s.LastAgent = agentKey
	}
	s.UpdatedAt = time.Now().UTC()
}

// ResolveParams fills parameters the message omitted from session state:
// a message with no URL inherits the last one mentioned.
func (c *Conversations) ResolveParams(s *Session, params map[string]any) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if params == nil {
		params = map[string]any{}
	}
	if _, ok := params["url"]; !ok && s.LastURL != "" {
		if t, _ := params["text"].(string); !strings.Contains(t, "http") {
			params["url"] = s.LastURL
		}
	}
	return params
}

// SetResult records an agent's output on the session and clears any pending
// action it satisfied.
func (c *Conversations) SetResult(s *Session, data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s.LastResult = data
	s.PendingAction = ""
	if u, _ := data["url"].(string); u != "" {
		s.LastURL = u
	}
	s.UpdatedAt = time.Now().UTC()
}

// SetPendingAction marks a button click awaiting its task result.
func (c *Conversations) SetPendingAction(s *Session, actionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s.PendingAction = actionID
	s.UpdatedAt = time.Now().UTC()
}

// Count returns the number of live sessions.
func (c *Conversations) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Sweep runs the expiry loop until ctx is cancelled.
func (c *Conversations) Sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.expire()
		}
	}
}

func (c *Conversations) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := time.Now().Add(-sessionTTL)
	removed := 0
	for key, s := range c.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(c.sessions, key)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("expired conversations", "removed", removed, "live", len(c.sessions))
	}
}

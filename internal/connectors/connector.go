// Package connectors exposes external systems (chat channels, MAM, CDN,
// newsroom, archive) as uniformly-callable named tools. The registry owns
// connector lifecycle and routes tool-name invocations; individual connectors
// adapt one external system each and run in demo mode unless real
// credentials are configured.
package connectors

import (
	"context"
	"time"
)

// Category classifies a connector.
type Category string

const (
	CategoryChannel  Category = "channel"
	CategoryStorage  Category = "storage"
	CategoryMAM      Category = "mam"
	CategoryCDN      Category = "cdn"
	CategoryNewsroom Category = "newsroom"
)

// Status is a connector's lifecycle state, tracked by the registry.
type Status string

const (
	StatusDisconnected Status = "DISCONNECTED"
	StatusConnecting   Status = "CONNECTING"
	StatusConnected    Status = "CONNECTED"
	StatusError        Status = "ERROR"
	StatusDegraded     Status = "DEGRADED"
)

// Operation is the access mode of a tool.
type Operation string

const (
	OpRead      Operation = "read"
	OpWrite     Operation = "write"
	OpSubscribe Operation = "subscribe"
)

// ToolDefinition describes one named operation a connector publishes.
// Tool names are globally unique across the registry and cross the LLM
// boundary, so they stay string-keyed.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
	ConnectorID string         `json:"connector_id"`
	Operation   Operation      `json:"operation"`
	// ParamKeys names the input keys that address or route the call
	// (channel, conversation_id, asset_id). On a write the registry moves
	// them into params; everything else arrives as the data payload.
	ParamKeys []string `json:"param_keys,omitempty"`
}

// Health is one health-check outcome.
type Health struct {
	Status    Status    `json:"status"`
	LatencyMS int64     `json:"latency_ms"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// CallResult is the normalized envelope every tool call returns. Tool calls
// never panic; transport and protocol errors land in Error.
type CallResult struct {
	Success   bool           `json:"success"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	Connector string         `json:"connector"`
	Mode      string         `json:"mode"`
	Timestamp time.Time      `json:"timestamp"`
}

// Connector is the contract every external-system adapter implements.
type Connector interface {
	ID() string
	DisplayName() string
	Category() Category
	AuthType() string

	// Authenticate establishes the connection. In demo mode it succeeds
	// without network I/O.
	Authenticate(ctx context.Context) error

	// HealthCheck probes the external system and reports latency.
	HealthCheck(ctx context.Context) Health

	Read(ctx context.Context, params map[string]any) (map[string]any, error)
	Write(ctx context.Context, data, params map[string]any) (map[string]any, error)

	// ToolDefinitions is static and stable for the connector's lifetime.
	ToolDefinitions() []ToolDefinition

	// Mode reports "demo" or "production".
	Mode() string
}

// Subscriber is implemented by connectors with webhook/WS-style push.
type Subscriber interface {
	Subscribe(event string, fn func(map[string]any)) error
}

// Base provides the shared identity fields for connector implementations,
// which embed it the same way channel adapters embed their base.
type Base struct {
	id       string
	name     string
	category Category
	authType string
	demo     bool
}

// NewBase creates the embedded base. demo toggles Mode().
func NewBase(id, name string, category Category, authType string, demo bool) Base {
	return Base{id: id, name: name, category: category, authType: authType, demo: demo}
}

func (b *Base) ID() string         { return b.id }
func (b *Base) DisplayName() string { return b.name }
func (b *Base) Category() Category  { return b.category }
func (b *Base) AuthType() string    { return b.authType }

// Mode reports the execution mode.
func (b *Base) Mode() string {
	if b.demo {
		return "demo"
	}
	return "production"
}

// Demo reports whether the connector runs without real network I/O.
func (b *Base) Demo() bool { return b.demo }

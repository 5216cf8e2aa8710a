package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const healthRingSize = 50

// connectorState is the registry-owned lifecycle record for one connector.
type connectorState struct {
	conn         Connector
	status       Status
	requestCount int
	errorCount   int
	health       []Health // bounded ring, oldest first
}

// Registry owns the connector set, indexes tool definitions into a single
// namespace, and routes tool-name invocations. Read-mostly after startup.
type Registry struct {
	mu    sync.RWMutex
	order []string
	conns map[string]*connectorState
	tools map[string]ToolDefinition
}

// NewRegistry creates an empty connector registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connectorState),
		tools: make(map[string]ToolDefinition),
	}
}

// Register adds a connector and indexes its tools. Re-registration replaces
// the connector and re-indexes.
func (r *Registry) Register(c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := c.ID()
	if old, exists := r.conns[id]; exists {
		for _, td := range old.conn.ToolDefinitions() {
			delete(r.tools, td.Name)
		}
	} else {
		r.order = append(r.order, id)
	}
	r.conns[id] = &connectorState{conn: c, status: StatusDisconnected}
	for _, td := range c.ToolDefinitions() {
		if prev, dup := r.tools[td.Name]; dup && prev.ConnectorID != id {
			slog.Warn("duplicate tool name, replacing", "tool", td.Name, "old", prev.ConnectorID, "new", id)
		}
		r.tools[td.Name] = td
	}
}

// Get returns the connector with the given id, or nil.
func (r *Registry) Get(id string) Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if st, ok := r.conns[id]; ok {
		return st.conn
	}
	return nil
}

// GetByCategory returns connectors of one category in registration order.
func (r *Registry) GetByCategory(cat Category) []Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Connector
	for _, id := range r.order {
		if st := r.conns[id]; st.conn.Category() == cat {
			out = append(out, st.conn)
		}
	}
	return out
}

// ListIDs returns connector ids in registration order.
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Status returns the registry-tracked status for a connector.
func (r *Registry) Status(id string) Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if st, ok := r.conns[id]; ok {
		return st.status
	}
	return StatusDisconnected
}

// Counters returns (request_count, error_count) for a connector.
func (r *Registry) Counters(id string) (int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if st, ok := r.conns[id]; ok {
		return st.requestCount, st.errorCount
	}
	return 0, 0
}

// Tools returns all indexed tool definitions.
func (r *Registry) Tools() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolDefinition, 0, len(r.tools))
	for _, id := range r.order {
		for _, td := range r.conns[id].conn.ToolDefinitions() {
			if indexed, ok := r.tools[td.Name]; ok && indexed.ConnectorID == id {
				out = append(out, indexed)
			}
		}
	}
	return out
}

// ConnectAll authenticates every connector in parallel. A single failure is
// recorded per-connector and never fails the whole pass.
func (r *Registry) ConnectAll(ctx context.Context) {
	r.mu.RLock()
	ids := append([]string(nil), r.order...)
	r.mu.RUnlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := r.connect(ctx, id); err != nil {
				slog.Warn("connector authentication failed", "connector", id, "error", err)
			} else {
				slog.Info("connector connected", "connector", id, "mode", r.Get(id).Mode())
			}
		}(id)
	}
	wg.Wait()
}

func (r *Registry) connect(ctx context.Context, id string) error {
	r.mu.Lock()
	st, ok := r.conns[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("unknown connector: %s", id)
	}
	st.status = StatusConnecting
	conn := st.conn
	r.mu.Unlock()

	err := conn.Authenticate(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		st.status = StatusError
		st.errorCount++
		return err
	}
	st.status = StatusConnected
	return nil
}

// HealthCheckAll probes every currently connected connector and appends each
// outcome to its bounded health ring.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]Health {
	r.mu.RLock()
	ids := append([]string(nil), r.order...)
	r.mu.RUnlock()

	out := make(map[string]Health, len(ids))
	for _, id := range ids {
		r.mu.RLock()
		st := r.conns[id]
		status := st.status
		conn := st.conn
		r.mu.RUnlock()
		if status != StatusConnected && status != StatusDegraded {
			continue
		}

		h := conn.HealthCheck(ctx)
		h.CheckedAt = time.Now().UTC()
		out[id] = h

		r.mu.Lock()
		st.health = append(st.health, h)
		if len(st.health) > healthRingSize {
			st.health = st.health[len(st.health)-healthRingSize:]
		}
		st.status = h.Status
		r.mu.Unlock()
	}
	return out
}

// HealthHistory returns the bounded health ring for a connector.
func (r *Registry) HealthHistory(id string) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if st, ok := r.conns[id]; ok {
		return append([]Health(nil), st.health...)
	}
	return nil
}

// splitWriteInput separates the routing keys a write tool declares from the
// content payload, so Write sees a clean data/params pair.
func splitWriteInput(td ToolDefinition, input map[string]any) (data, params map[string]any) {
	if len(td.ParamKeys) == 0 {
		return input, nil
	}
	keys := make(map[string]bool, len(td.ParamKeys))
	for _, k := range td.ParamKeys {
		keys[k] = true
	}
	data = make(map[string]any, len(input))
	params = make(map[string]any, len(td.ParamKeys))
	for k, v := range input {
		if keys[k] {
			params[k] = v
		} else {
			data[k] = v
		}
	}
	return data, params
}

// CallTool looks up a tool by name, reconnects its connector once if needed,
// and dispatches to Read or Write. It never panics; all failures come back as
// {success:false, error} envelopes.
func (r *Registry) CallTool(ctx context.Context, toolName string, input map[string]any) CallResult {
	ctx, span := otel.Tracer("github.com/mediaiq/miq/internal/connectors").Start(ctx, "tool.call")
	span.SetAttributes(attribute.String("tool.name", toolName))
	defer span.End()

	r.mu.RLock()
	td, ok := r.tools[toolName]
	var st *connectorState
	if ok {
		st = r.conns[td.ConnectorID]
	}
	r.mu.RUnlock()

	if !ok || st == nil {
		return CallResult{
			Success:   false,
			Error:     "unknown tool: " + toolName,
			Timestamp: time.Now().UTC(),
		}
	}

	fail := func(err error) CallResult {
		r.mu.Lock()
		st.errorCount++
		st.status = StatusError
		r.mu.Unlock()
		return CallResult{
			Success:   false,
			Error:     err.Error(),
			Connector: td.ConnectorID,
			Mode:      st.conn.Mode(),
			Timestamp: time.Now().UTC(),
		}
	}

	// Single reconnect attempt for a disconnected connector.
	if r.Status(td.ConnectorID) != StatusConnected {
		if err := r.connect(ctx, td.ConnectorID); err != nil {
			return fail(fmt.Errorf("connector %s unavailable: %w", td.ConnectorID, err))
		}
	}

	r.mu.Lock()
	st.requestCount++
	r.mu.Unlock()

	var (
		data map[string]any
		err  error
	)
	switch td.Operation {
	case OpWrite:
		payload, routing := splitWriteInput(td, input)
		data, err = st.conn.Write(ctx, payload, routing)
	default:
		data, err = st.conn.Read(ctx, input)
	}
	if err != nil {
		return fail(err)
	}

	return CallResult{
		Success:   true,
		Data:      data,
		Connector: td.ConnectorID,
		Mode:      st.conn.Mode(),
		Timestamp: time.Now().UTC(),
	}
}

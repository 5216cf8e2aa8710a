// Package bus implements the in-process typed event bus. Routing is a static
// subscription table fixed at registration time: event kind → ordered agent
// keys. Publishing enqueues one task per subscriber through the sink the
// orchestrator installs, runs synchronous handlers, and fans the event out to
// broadcast listeners (the gateway's websocket clients).
package bus

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind is an event type on the bus.
type Kind string

const (
	KindNewContent        Kind = "NEW_CONTENT"
	KindCaptionComplete   Kind = "CAPTION_COMPLETE"
	KindClipDetected      Kind = "CLIP_DETECTED"
	KindComplianceAlert   Kind = "COMPLIANCE_ALERT"
	KindTrendingSpike     Kind = "TRENDING_SPIKE"
	KindLicenseExpiring   Kind = "LICENSE_EXPIRING"
	KindViolationDetected Kind = "VIOLATION_DETECTED"
	KindBreakingNews      Kind = "BREAKING_NEWS"
)

// highPriorityKinds are dispatched in the HIGH band instead of NORMAL.
var highPriorityKinds = map[Kind]bool{
	KindComplianceAlert:   true,
	KindBreakingNews:      true,
	KindViolationDetected: true,
}

// HighPriority reports whether tasks derived from k go to the HIGH band.
func HighPriority(k Kind) bool { return highPriorityKinds[k] }

// Event is a typed signal published by an agent (or the system).
type Event struct {
	ID          string         `json:"id"`
	Kind        Kind           `json:"kind"`
	Data        map[string]any `json:"data,omitempty"`
	SourceAgent string         `json:"source_agent"`
	Timestamp   time.Time      `json:"timestamp"`
	Hop         int            `json:"hop"` // chain depth from the originating user task
}

// NewEvent builds an event with id and timestamp filled in.
func NewEvent(kind Kind, data map[string]any, sourceAgent string, hop int) Event {
	return Event{
		ID:          uuid.NewString(),
		Kind:        kind,
		Data:        data,
		SourceAgent: sourceAgent,
		Timestamp:   time.Now().UTC(),
		Hop:         hop,
	}
}

// Sink receives one enqueue request per subscribed agent. Installed by the
// orchestrator; must not block.
type Sink func(agentKey string, ev Event, high bool)

// Handler is an in-process synchronous subscriber. Handlers must not block.
type Handler func(Event)

// Listener receives every published event regardless of kind (websocket
// broadcast path).
type Listener func(Event)

// Bus holds the static subscription table and the handler lists.
type Bus struct {
	mu        sync.RWMutex
	subs      map[Kind][]string
	handlers  map[Kind][]Handler
	listeners map[string]Listener
	sink      Sink
	published map[Kind]int
}

// New creates a bus with the given subscription table. The table is the sole
// routing rule and is not mutated after startup.
func New(subs map[Kind][]string) *Bus {
	table := make(map[Kind][]string, len(subs))
	for k, v := range subs {
		table[k] = append([]string(nil), v...)
	}
	return &Bus{
		subs:      table,
		handlers:  make(map[Kind][]Handler),
		listeners: make(map[string]Listener),
		published: make(map[Kind]int),
	}
}

// SetSink installs the task-enqueue sink. Must be called before Publish.
func (b *Bus) SetSink(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sink = s
}

// Subscribers returns the ordered agent keys subscribed to kind.
func (b *Bus) Subscribers(kind Kind) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.subs[kind]...)
}

// OnKind registers a synchronous in-process handler for one event kind.
func (b *Bus) OnKind(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Listen registers a broadcast listener under id (replacing any previous one).
func (b *Bus) Listen(id string, l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[id] = l
}

// Unlisten removes a broadcast listener.
func (b *Bus) Unlisten(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, id)
}

// Publish routes ev: one task enqueued per subscriber (in table order),
// synchronous handlers invoked, broadcast listeners notified. Returns the
// agent keys that were enqueued.
func (b *Bus) Publish(ev Event) []string {
	b.mu.RLock()
	subs := b.subs[ev.Kind]
	handlers := append([]Handler(nil), b.handlers[ev.Kind]...)
	listeners := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	sink := b.sink
	b.mu.RUnlock()

	b.mu.Lock()
	b.published[ev.Kind]++
	b.mu.Unlock()

	high := HighPriority(ev.Kind)
	enqueued := make([]string, 0, len(subs))
	if sink != nil {
		for _, key := range subs {
			sink(key, ev, high)
			enqueued = append(enqueued, key)
		}
	} else if len(subs) > 0 {
		slog.Warn("event published with no sink installed", "kind", ev.Kind)
	}

	for _, h := range handlers {
		h(ev)
	}
	for _, l := range listeners {
		l(ev)
	}

	slog.Debug("event published",
		"kind", ev.Kind, "source", ev.SourceAgent, "subscribers", len(enqueued), "hop", ev.Hop)
	return enqueued
}

// PublishedCounts returns a copy of the per-kind publish counters.
func (b *Bus) PublishedCounts() map[Kind]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[Kind]int, len(b.published))
	for k, v := range b.published {
		out[k] = v
	}
	return out
}

// TotalPublished returns the total number of events published.
func (b *Bus) TotalPublished() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := 0
	for _, v := range b.published {
		total += v
	}
	return total
}

// DefaultSubscriptions is the production subscription table. Order within a
// kind is dispatch order.
func DefaultSubscriptions() map[Kind][]string {
	return map[Kind][]string{
		KindNewContent:        {"caption", "clip", "compliance", "archive"},
		KindCaptionComplete:   {"localize", "archive"},
		KindClipDetected:      {"social", "brand"},
		KindComplianceAlert:   {"playout", "newsroom"},
		KindTrendingSpike:     {"social", "archive"},
		KindLicenseExpiring:   {"archive", "newsroom"},
		KindViolationDetected: {"playout", "brand"},
		KindBreakingNews:      {"social", "trending", "ai_production_director", "live_fact_check"},
	}
}

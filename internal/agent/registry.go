package agent

import (
	"sync"
)

// Registry holds the registered agents in registration order.
// Read-mostly after startup.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
	order  []string
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Register adds an agent under its key. Re-registration replaces.
func (r *Registry) Register(a Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[a.Key()]; !exists {
		r.order = append(r.order, a.Key())
	}
	r.agents[a.Key()] = a
}

// Get returns the agent for key, or nil.
func (r *Registry) Get(key string) Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.agents[key]
}

// Keys returns all registered agent keys in registration order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, len(r.order))
	copy(keys, r.order)
	return keys
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[key]
	return ok
}

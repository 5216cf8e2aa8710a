// Package agent defines the contract every MIQ agent implements and the
// runtime wrapper that enforces it: dual-mode execution (demo/production),
// result-envelope normalization, timing, and memory journal write-back.
package agent

import (
	"context"
	"time"
)

// Mode names which branch of an agent produced a result.
type Mode string

const (
	ModeDemo       Mode = "demo"
	ModeProduction Mode = "production"
)

// Agent is the uniform contract for a pluggable processing unit.
// Implementations are registered under a stable key and must be idempotent
// for a given (key, input): a production failure is retried on the demo
// branch, so demo runs must not produce observable side effects.
type Agent interface {
	// Key is the stable registry key (e.g. "caption", "trending").
	Key() string
	// Name is the human-readable display name used in result envelopes.
	Name() string
	Description() string

	// RequiredIntegrations lists the integration keys (e.g. "openai",
	// "slack") that must be configured for the production branch to run.
	RequiredIntegrations() []string

	// Validate is a cheap precondition check on the input payload.
	Validate(input any) bool

	// DemoProcess produces realistic mock output without external I/O.
	DemoProcess(ctx context.Context, input any) (map[string]any, error)

	// ProductionProcess performs the real work against external systems.
	ProductionProcess(ctx context.Context, input any) (map[string]any, error)
}

// Result is the canonical envelope returned by every agent invocation and
// consumed by the formatter, the completion hook, and the memory journal.
type Result struct {
	Success   bool           `json:"success"`
	Agent     string         `json:"agent"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	Mode      Mode           `json:"mode"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Failure builds a failure envelope for the named agent.
func Failure(displayName, errMsg string, mode Mode) *Result {
	return &Result{
		Success:   false,
		Agent:     displayName,
		Timestamp: time.Now().UTC(),
		Error:     errMsg,
		Mode:      mode,
	}
}

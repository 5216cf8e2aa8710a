// Package orchestrator is the single-process control plane: the priority
// task queue, the recurring-job scheduler, the task-worker that drives agent
// invocations, and the completion hooks that chain agent results into new
// events and workflow steps.
package orchestrator

import (
	"time"

	"github.com/google/uuid"

	"github.com/mediaiq/miq/internal/agent"
)

// Priority is the dispatch band of a task. Lower dispatches first.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityNormal:
		return "NORMAL"
	case PriorityLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// Status is the lifecycle state of a task. Transitions are monotonic:
// PENDING→RUNNING→{COMPLETED,FAILED}, plus PENDING→CANCELLED. Terminal
// states never change.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Task is one unit of work submitted to the orchestrator.
type Task struct {
	ID       string   `json:"id"`
	AgentKey string   `json:"agent_key"`
	Input    any      `json:"input"`
	Priority Priority `json:"priority"`
	Status   Status   `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Result *agent.Result `json:"result,omitempty"`

	// TriggeredBy is a causal reference: a parent task id, "schedule:<id>",
	// or "event:<kind>". Empty for direct user submissions.
	TriggeredBy string `json:"triggered_by,omitempty"`

	// Hop counts chained event generations from the originating submission.
	// Fan-out stops once it reaches maxChainHops.
	Hop int `json:"hop,omitempty"`

	// Callback is an optional in-process continuation, invoked by the
	// task-worker after the task reaches a terminal state.
	Callback func(*Task) `json:"-"`

	// TriggeredSubscribers is filled by the completion hook with the agent
	// keys enqueued from this task's derived events.
	TriggeredSubscribers []string `json:"triggered_subscribers,omitempty"`
}

// NewTask builds a PENDING task.
func NewTask(agentKey string, input any, priority Priority, triggeredBy string) *Task {
	return &Task{
		ID:          uuid.NewString(),
		AgentKey:    agentKey,
		Input:       input,
		Priority:    priority,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
		TriggeredBy: triggeredBy,
	}
}

package orchestrator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mediaiq/miq/internal/agent"
)

// WorkflowDefinitions are the named agent chains available out of the box.
// Each step consumes the previous step's result data as its input.
var WorkflowDefinitions = map[string][]string{
	"breaking_news":     {"trending", "factcheck", "social"},
	"ingest_to_publish": {"ingest", "caption", "compliance", "social"},
}

// Workflow tracks one in-flight chain: remaining steps and accumulated
// results. State is in-memory only, keyed by workflow id.
type Workflow struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Steps     []string        `json:"steps"`
	Index     int             `json:"index"`
	Results   []*agent.Result `json:"results"`
	Done      bool            `json:"done"`
	Failed    bool            `json:"failed"`
	CreatedAt time.Time       `json:"created_at"`
}

// StartWorkflow dispatches the first step of a named workflow. Step N+1 is
// submitted only after step N completes successfully; a failed step ends the
// chain with Failed set.
func (o *Orchestrator) StartWorkflow(name string, input any) (*Workflow, error) {
	steps, ok := WorkflowDefinitions[name]
	if !ok {
		return nil, fmt.Errorf("unknown workflow: %s", name)
	}
	wf := &Workflow{
		ID:        uuid.NewString(),
		Name:      name,
		Steps:     steps,
		CreatedAt: time.Now().UTC(),
	}
	o.mu.Lock()
	o.workflows[wf.ID] = wf
	o.mu.Unlock()

	o.submitStep(wf, input, "")
	return wf, nil
}

func (o *Orchestrator) submitStep(wf *Workflow, input any, parentTaskID string) {
	o.mu.Lock()
	step := wf.Steps[wf.Index]
	o.mu.Unlock()

	triggeredBy := parentTaskID
	o.SubmitWithCallback(step, input, PriorityNormal, triggeredBy, func(t *Task) {
		o.advanceWorkflow(wf, t)
	})
}

func (o *Orchestrator) advanceWorkflow(wf *Workflow, t *Task) {
	o.mu.Lock()
	wf.Results = append(wf.Results, t.Result)
	if t.Status != StatusCompleted {
		wf.Done = true
		wf.Failed = true
		o.mu.Unlock()
		slog.Warn("workflow step failed", "workflow", wf.Name, "id", wf.ID, "step", t.AgentKey)
		return
	}
	wf.Index++
	finished := wf.Index >= len(wf.Steps)
	if finished {
		wf.Done = true
	}
	o.mu.Unlock()

	if finished {
		slog.Info("workflow completed", "workflow", wf.Name, "id", wf.ID, "steps", len(wf.Steps))
		return
	}

	var next any
	if t.Result != nil && t.Result.Data != nil {
		next = t.Result.Data
	} else {
		next = t.Input
	}
	o.submitStep(wf, next, t.ID)
}

// WorkflowStatus returns a copy of an in-flight or finished workflow.
func (o *Orchestrator) WorkflowStatus(id string) (Workflow, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	wf, ok := o.workflows[id]
	if !ok {
		return Workflow{}, false
	}
	cp := *wf
	cp.Steps = append([]string(nil), wf.Steps...)
	cp.Results = append([]*agent.Result(nil), wf.Results...)
	return cp, true
}

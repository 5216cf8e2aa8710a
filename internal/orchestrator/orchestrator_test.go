package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/bus"
	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/memory"
)

// stubAgent is a deterministic test agent.
type stubAgent struct {
	key  string
	data map[string]any
	err  error
}

func (s *stubAgent) Key() string                    { return s.key }
func (s *stubAgent) Name() string                   { return s.key + " stub" }
func (s *stubAgent) Description() string            { return "stub" }
func (s *stubAgent) RequiredIntegrations() []string { return nil }
func (s *stubAgent) Validate(input any) bool        { return input != nil }
func (s *stubAgent) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	return s.data, s.err
}
func (s *stubAgent) ProductionProcess(ctx context.Context, input any) (map[string]any, error) {
	return nil, agent.ErrProductionNotReady
}

func newTestOrchestrator(t *testing.T, stubs ...*stubAgent) *Orchestrator {
	t.Helper()
	settings := config.Defaults()
	settings.MemoryDir = t.TempDir()

	journal, err := memory.NewJournal(settings.MemoryDir, 100, 50)
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	registry := agent.NewRegistry()
	for _, s := range stubs {
		registry.Register(s)
	}
	b := bus.New(bus.DefaultSubscriptions())
	return New(settings, registry, agent.NewRuntime(settings), journal, b)
}

// drain runs queued tasks synchronously until the queue is empty.
func drain(o *Orchestrator) {
	for {
		t := o.queue.Pop()
		if t == nil {
			return
		}
		o.runOne(context.Background(), t)
	}
}

func TestSubmitUnknownAgentFailsFast(t *testing.T) {
	o := newTestOrchestrator(t)
	task := o.Submit("nope", "input", PriorityNormal, "")

	if task.Status != StatusFailed {
		t.Fatalf("status = %s, want FAILED", task.Status)
	}
	if task.Result == nil || task.Result.Success {
		t.Fatal("expected failure envelope")
	}
	if _, ok := o.CompletedTask(task.ID); !ok {
		t.Fatal("failed task should be in the completed ring")
	}
}

func TestRunOneCompletesAndJournals(t *testing.T) {
	o := newTestOrchestrator(t, &stubAgent{key: "signal", data: map[string]any{"status": "locked"}})
	task := o.Submit("signal", "check feeds", PriorityNormal, "")
	drain(o)

	if task.Status != StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", task.Status)
	}
	if task.Result == nil || !task.Result.Success {
		t.Fatal("expected success envelope")
	}
	if o.journal.EntryCount("signal") != 1 {
		t.Fatalf("journal entries = %d, want 1", o.journal.EntryCount("signal"))
	}
	st := o.Stats()
	if st.Processed != 1 || st.Failed != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestTrendingResultFansOut(t *testing.T) {
	o := newTestOrchestrator(t, &stubAgent{key: "trending", data: map[string]any{
		"trends":        []any{map[string]any{"velocity_score": 94}},
		"breaking_news": []any{map[string]any{"headline": "storm landfall"}},
	}})

	task := o.Submit("trending", "scan", PriorityNormal, "")
	tsk := o.queue.Pop()
	o.runOne(context.Background(), tsk)

	// TRENDING_SPIKE → social, archive; BREAKING_NEWS → social, trending,
	// ai_production_director, live_fact_check.
	want := []string{"social", "archive", "social", "trending", "ai_production_director", "live_fact_check"}
	if len(task.TriggeredSubscribers) != len(want) {
		t.Fatalf("subscribers = %v, want %v", task.TriggeredSubscribers, want)
	}
	for i, key := range want {
		if task.TriggeredSubscribers[i] != key {
			t.Fatalf("subscribers = %v, want %v", task.TriggeredSubscribers, want)
		}
	}
	if o.queue.Len() != len(want) {
		t.Fatalf("queued tasks = %d, want %d", o.queue.Len(), len(want))
	}

	// Breaking-news fan-out lands in the HIGH band, ahead of the spike tasks.
	head := o.queue.Pop()
	if head.Priority != PriorityHigh || head.AgentKey != "social" {
		t.Fatalf("head = %s/%s, want HIGH/social", head.Priority, head.AgentKey)
	}
	if head.Hop != 1 {
		t.Fatalf("hop = %d, want 1", head.Hop)
	}
}

func TestHopLimitSuppressesFanOut(t *testing.T) {
	o := newTestOrchestrator(t, &stubAgent{key: "caption", data: map[string]any{"language": "en"}})
	task := NewTask("caption", "deep chain", PriorityNormal, "event:NEW_CONTENT")
	task.Hop = maxChainHops
	o.enqueue(task)
	drain(o)

	if task.Status != StatusCompleted {
		t.Fatalf("status = %s", task.Status)
	}
	if len(task.TriggeredSubscribers) != 0 {
		t.Fatalf("fan-out at hop limit: %v", task.TriggeredSubscribers)
	}
}

func TestInvalidInputNotJournaled(t *testing.T) {
	o := newTestOrchestrator(t, &stubAgent{key: "caption", data: map[string]any{}})
	task := o.Submit("caption", nil, PriorityNormal, "")
	drain(o)

	if task.Status != StatusFailed {
		t.Fatalf("status = %s, want FAILED", task.Status)
	}
	if o.journal.EntryCount("caption") != 0 {
		t.Fatal("invalid input should not produce a journal entry")
	}
	if st := o.Stats(); st.Invalid != 1 {
		t.Fatalf("invalid = %d, want 1", st.Invalid)
	}
}

func TestCancelPendingTask(t *testing.T) {
	o := newTestOrchestrator(t, &stubAgent{key: "signal", data: map[string]any{}})
	task := o.Submit("signal", "x", PriorityNormal, "")

	if !o.Cancel(task.ID) {
		t.Fatal("cancel failed")
	}
	if task.Status != StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", task.Status)
	}
	if o.Cancel(task.ID) {
		t.Fatal("second cancel should fail")
	}
}

func TestCallbackRunsOnTerminal(t *testing.T) {
	o := newTestOrchestrator(t, &stubAgent{key: "signal", data: map[string]any{}})
	var got *Task
	o.SubmitWithCallback("signal", "x", PriorityHigh, "", func(t *Task) { got = t })
	drain(o)

	if got == nil || !got.Status.Terminal() {
		t.Fatalf("callback task = %+v", got)
	}
}

func TestFailedAgentRecordsError(t *testing.T) {
	o := newTestOrchestrator(t, &stubAgent{key: "signal", err: errors.New("probe offline")})
	task := o.Submit("signal", "x", PriorityNormal, "")
	drain(o)

	if task.Status != StatusFailed {
		t.Fatalf("status = %s, want FAILED", task.Status)
	}
	if task.Result.Error == "" {
		t.Fatal("expected error on envelope")
	}
	if st := o.Stats(); st.Failed != 1 {
		t.Fatalf("failed = %d, want 1", st.Failed)
	}
}

func TestWorkflowAdvancesThroughSteps(t *testing.T) {
	o := newTestOrchestrator(t,
		&stubAgent{key: "trending", data: map[string]any{"topic": "storm"}},
		&stubAgent{key: "factcheck", data: map[string]any{"checked": 1}},
		&stubAgent{key: "social", data: map[string]any{"post_count": 3}},
	)

	wf, err := o.StartWorkflow("breaking_news", "storm coverage")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	drain(o)

	status, ok := o.WorkflowStatus(wf.ID)
	if !ok {
		t.Fatal("workflow not found")
	}
	if !status.Done || status.Failed {
		t.Fatalf("workflow = %+v", status)
	}
	if len(status.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(status.Results))
	}
}

package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/bus"
	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/memory"
)

const (
	completedRingSize = 1000
	idleSleep         = 100 * time.Millisecond
	monitorInterval   = 60 * time.Second
)

// Orchestrator owns the queue, the scheduler, and the event bus, and runs the
// three long-lived goroutines: task-worker, scheduler loop, and monitor. It
// never propagates agent errors to its loops; every failure is normalized
// into the task's result envelope.
type Orchestrator struct {
	settings *config.Settings
	registry *agent.Registry
	runtime  *agent.Runtime
	journal  *memory.Journal
	bus      *bus.Bus
	queue    *Queue
	sched    *Scheduler

	mu        sync.Mutex
	running   *Task
	completed []*Task // bounded ring, oldest first
	workflows map[string]*Workflow
	stats     Stats

	wg sync.WaitGroup
}

// Stats is a point-in-time snapshot of orchestrator counters.
type Stats struct {
	QueueDepth      int    `json:"queue_depth"`
	Running         int    `json:"running"`
	Processed       int    `json:"processed"`
	Failed          int    `json:"failed"`
	Cancelled       int    `json:"cancelled"`
	Invalid         int    `json:"invalid"`
	EventsPublished int    `json:"events_published"`
	CompletedKept   int    `json:"completed_kept"`
	StartedAt       string `json:"started_at,omitempty"`
}

// New wires the orchestrator. The bus sink is installed here: every
// published event enqueues one task per subscriber.
func New(settings *config.Settings, registry *agent.Registry, runtime *agent.Runtime, journal *memory.Journal, b *bus.Bus) *Orchestrator {
	o := &Orchestrator{
		settings:  settings,
		registry:  registry,
		runtime:   runtime,
		journal:   journal,
		bus:       b,
		queue:     NewQueue(),
		workflows: make(map[string]*Workflow),
	}
	o.sched = NewScheduler(func(agentKey string, input any, triggeredBy string) {
		o.Submit(agentKey, input, PriorityNormal, triggeredBy)
	})
	b.SetSink(func(agentKey string, ev bus.Event, high bool) {
		prio := PriorityNormal
		if high {
			prio = PriorityHigh
		}
		t := NewTask(agentKey, map[string]any(ev.Data), prio, "event:"+string(ev.Kind))
		t.Hop = ev.Hop
		o.enqueue(t)
	})
	return o
}

// Scheduler returns the owned scheduler for job registration.
func (o *Orchestrator) Scheduler() *Scheduler { return o.sched }

// Bus returns the owned event bus.
func (o *Orchestrator) Bus() *bus.Bus { return o.bus }

// Start launches the task-worker, scheduler loop, and monitor. They stop when
// ctx is cancelled; the worker finishes its in-flight task first.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	o.stats.StartedAt = time.Now().UTC().Format(time.RFC3339)
	o.mu.Unlock()

	o.wg.Add(3)
	go func() {
		defer o.wg.Done()
		o.workerLoop(ctx)
	}()
	go func() {
		defer o.wg.Done()
		o.sched.Run(ctx)
	}()
	go func() {
		defer o.wg.Done()
		o.monitorLoop(ctx)
	}()
	slog.Info("orchestrator started",
		"agents", len(o.registry.Keys()), "production_mode", o.settings.ProductionMode)
}

// Wait blocks until all orchestrator goroutines have stopped.
func (o *Orchestrator) Wait() { o.wg.Wait() }

// Submit creates and enqueues a task. An unregistered agent key fails the
// task immediately with an error envelope instead of crashing the worker.
func (o *Orchestrator) Submit(agentKey string, input any, priority Priority, triggeredBy string) *Task {
	t := NewTask(agentKey, input, priority, triggeredBy)
	if !o.registry.Has(agentKey) {
		t.Result = agent.Failure(agentKey, "unknown agent: "+agentKey, agent.ModeDemo)
		o.finishWithoutRun(t, StatusFailed)
		return t
	}
	o.enqueue(t)
	return t
}

// SubmitWithCallback is Submit plus an in-process continuation.
func (o *Orchestrator) SubmitWithCallback(agentKey string, input any, priority Priority, triggeredBy string, cb func(*Task)) *Task {
	t := NewTask(agentKey, input, priority, triggeredBy)
	t.Callback = cb
	if !o.registry.Has(agentKey) {
		t.Result = agent.Failure(agentKey, "unknown agent: "+agentKey, agent.ModeDemo)
		o.finishWithoutRun(t, StatusFailed)
		return t
	}
	o.enqueue(t)
	return t
}

func (o *Orchestrator) enqueue(t *Task) {
	o.queue.Submit(t)
	slog.Debug("task submitted",
		"task", t.ID, "agent", t.AgentKey, "priority", t.Priority.String(), "triggered_by", t.TriggeredBy)
}

// Cancel removes a PENDING task by id. Running and terminal tasks are not
// affected; cancelling them returns false.
func (o *Orchestrator) Cancel(id string) bool {
	t, ok := o.queue.Cancel(id)
	if !ok {
		return false
	}
	o.finishWithoutRun(t, StatusCancelled)
	return true
}

// finishWithoutRun moves a never-run task to a terminal state and records it.
func (o *Orchestrator) finishWithoutRun(t *Task, status Status) {
	now := time.Now().UTC()
	t.Status = status
	t.CompletedAt = &now

	mode := ""
	if t.Result != nil {
		mode = string(t.Result.Mode)
	}
	if err := o.journal.AppendTaskRow(t.ID, t.AgentKey, string(status), t.Priority.String(), mode, t.TriggeredBy, 0); err != nil {
		slog.Warn("task history write failed", "task", t.ID, "error", err)
	}

	o.mu.Lock()
	o.pushCompleted(t)
	switch status {
	case StatusCancelled:
		o.stats.Cancelled++
	case StatusFailed:
		o.stats.Failed++
	}
	o.mu.Unlock()

	if t.Callback != nil {
		t.Callback(t)
	}
}

// workerLoop is the single task consumer.
func (o *Orchestrator) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		t := o.queue.Pop()
		if t == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(idleSleep):
			}
			continue
		}
		o.runOne(ctx, t)
	}
}

// runOne drives one task through the runtime and the completion hook.
// Ordering contract: the journal entry lands before derived events are
// published, and events are published before the task enters the completed
// ring, so any chained task sees its parent as a prior audit entry.
func (o *Orchestrator) runOne(ctx context.Context, t *Task) {
	now := time.Now().UTC()
	t.Status = StatusRunning
	t.StartedAt = &now
	o.mu.Lock()
	o.running = t
	o.mu.Unlock()

	a := o.registry.Get(t.AgentKey)
	res, dur, err := o.runtime.Run(ctx, a, t.Input)
	t.Result = res

	done := time.Now().UTC()
	t.CompletedAt = &done
	if res.Success {
		t.Status = StatusCompleted
	} else {
		t.Status = StatusFailed
	}
	invalid := errors.Is(err, agent.ErrInvalidInput)

	// Completion hook: derive events and resolve their subscribers from the
	// static table before anything is written.
	var events []bus.Event
	if !invalid && t.Hop < maxChainHops {
		events = deriveEvents(t.AgentKey, res, t.Hop+1)
	} else if t.Hop >= maxChainHops && res.Success {
		slog.Warn("chain hop limit reached, fan-out suppressed", "task", t.ID, "agent", t.AgentKey, "hop", t.Hop)
	}
	for _, ev := range events {
		t.TriggeredSubscribers = append(t.TriggeredSubscribers, o.bus.Subscribers(ev.Kind)...)
	}

	if !invalid {
		entry := memory.Entry{
			Time:          done,
			TaskID:        t.ID,
			Success:       res.Success,
			Mode:          string(res.Mode),
			InputSummary:  memory.SummarizeInput(t.Input),
			OutputSummary: memory.SummarizeOutput(t.AgentKey, res.Data),
			Subscribers:   t.TriggeredSubscribers,
			DurationMS:    dur.Milliseconds(),
		}
		if !res.Success {
			entry.OutputSummary = res.Error
		}
		if jerr := o.journal.Append(t.AgentKey, entry); jerr != nil {
			slog.Warn("journal write failed", "agent", t.AgentKey, "error", jerr)
		}
	}
	if jerr := o.journal.AppendTaskRow(t.ID, t.AgentKey, string(t.Status), t.Priority.String(), string(res.Mode), t.TriggeredBy, dur.Milliseconds()); jerr != nil {
		slog.Warn("task history write failed", "task", t.ID, "error", jerr)
	}

	for _, ev := range events {
		enqueued := o.bus.Publish(ev)
		if jerr := o.journal.AppendEvent(string(ev.Kind), t.AgentKey, t.ID, enqueued,
			memory.SummarizeOutput(t.AgentKey, ev.Data), len(enqueued)); jerr != nil {
			slog.Warn("event log write failed", "kind", ev.Kind, "error", jerr)
		}
	}

	o.mu.Lock()
	o.running = nil
	o.pushCompleted(t)
	switch {
	case invalid:
		o.stats.Invalid++
	case res.Success:
		o.stats.Processed++
	default:
		o.stats.Failed++
	}
	o.stats.EventsPublished += len(events)
	o.mu.Unlock()

	if t.Callback != nil {
		t.Callback(t)
	}

	slog.Debug("task finished",
		"task", t.ID, "agent", t.AgentKey, "status", t.Status, "mode", res.Mode, "duration_ms", dur.Milliseconds())
}

func (o *Orchestrator) pushCompleted(t *Task) {
	o.completed = append(o.completed, t)
	if len(o.completed) > completedRingSize {
		o.completed = o.completed[len(o.completed)-completedRingSize:]
	}
}

// CompletedTask looks up a task in the completed ring.
func (o *Orchestrator) CompletedTask(id string) (*Task, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.completed) - 1; i >= 0; i-- {
		if o.completed[i].ID == id {
			return o.completed[i], true
		}
	}
	return nil, false
}

// Stats returns a snapshot of the orchestrator counters.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.stats
	s.QueueDepth = o.queue.Len()
	if o.running != nil {
		s.Running = 1
	}
	s.EventsPublished = o.bus.TotalPublished()
	s.CompletedKept = len(o.completed)
	return s
}

// monitorLoop emits a periodic structured status line. Elevated queue depth
// here is the operator's signal for a runaway agent.
func (o *Orchestrator) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := o.Stats()
			slog.Info("orchestrator status",
				"queue_depth", s.QueueDepth,
				"running", s.Running,
				"processed", s.Processed,
				"failed", s.Failed,
				"events", s.EventsPublished,
			)
		}
	}
}

package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/adhocore/gronx"
)

// ScheduledJob is a recurring job definition. Either Interval or CronExpr is
// set; cron jobs fire on expression match (minute granularity), interval jobs
// when next_run comes due. Missed ticks are never caught up: firing advances
// next_run from now, not from last_run.
type ScheduledJob struct {
	ID       string        `json:"id"`
	AgentKey string        `json:"agent_key"`
	Input    any           `json:"input"`
	Interval time.Duration `json:"interval,omitempty"`
	CronExpr string        `json:"cron,omitempty"`
	Enabled  bool          `json:"enabled"`
	LastRun  time.Time     `json:"last_run,omitempty"`
	NextRun  time.Time     `json:"next_run,omitempty"`
	RunCount int           `json:"run_count"`
}

// Scheduler holds scheduled jobs in insertion order and emits one task per
// due job per tick through the submit callback.
type Scheduler struct {
	mu     sync.Mutex
	jobs   []*ScheduledJob
	byID   map[string]*ScheduledJob
	gron   *gronx.Gronx
	submit func(agentKey string, input any, triggeredBy string)
}

// NewScheduler creates a scheduler. submit is called once per due job.
func NewScheduler(submit func(agentKey string, input any, triggeredBy string)) *Scheduler {
	return &Scheduler{
		byID:   make(map[string]*ScheduledJob),
		gron:   gronx.New(),
		submit: submit,
	}
}

// Add registers a job. Interval jobs get next_run = now + interval; cron jobs
// are evaluated against the expression each tick. Re-adding an id replaces
// the definition but keeps its slot in the iteration order.
func (s *Scheduler) Add(job *ScheduledJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.Interval > 0 && job.NextRun.IsZero() {
		job.NextRun = time.Now().Add(job.Interval)
	}
	if existing, ok := s.byID[job.ID]; ok {
		*existing = *job
		return
	}
	s.jobs = append(s.jobs, job)
	s.byID[job.ID] = job
}

// Remove deletes a job by id.
func (s *Scheduler) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	for i, j := range s.jobs {
		if j == job {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			break
		}
	}
	return true
}

// Pause disables a job. In-flight tasks it already spawned continue.
func (s *Scheduler) Pause(id string) bool { return s.setEnabled(id, false) }

// Resume enables a job and arms it to fire on the next tick.
func (s *Scheduler) Resume(id string) bool { return s.setEnabled(id, true) }

func (s *Scheduler) setEnabled(id string, enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.byID[id]
	if !ok {
		return false
	}
	job.Enabled = enabled
	if enabled && job.Interval > 0 {
		job.NextRun = time.Now()
	}
	return true
}

// Get returns a copy of the job with the given id.
func (s *Scheduler) Get(id string) (ScheduledJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.byID[id]
	if !ok {
		return ScheduledJob{}, false
	}
	return *job, true
}

// List returns copies of all jobs in insertion order.
func (s *Scheduler) List() []ScheduledJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScheduledJob, len(s.jobs))
	for i, j := range s.jobs {
		out[i] = *j
	}
	return out
}

// Tick evaluates every enabled job against now, in insertion order, and
// submits one task per due job. A job ten intervals overdue still fires
// exactly once.
func (s *Scheduler) Tick(now time.Time) {
	s.mu.Lock()
	due := make([]*ScheduledJob, 0, 2)
	for _, job := range s.jobs {
		if !job.Enabled {
			continue
		}
		if s.isDue(job, now) {
			job.LastRun = now
			if job.Interval > 0 {
				job.NextRun = now.Add(job.Interval)
			}
			job.RunCount++
			due = append(due, job)
		}
	}
	submits := make([]ScheduledJob, len(due))
	for i, j := range due {
		submits[i] = *j
	}
	s.mu.Unlock()

	for _, job := range submits {
		slog.Debug("scheduled job due", "job", job.ID, "agent", job.AgentKey, "run_count", job.RunCount)
		s.submit(job.AgentKey, job.Input, "schedule:"+job.ID)
	}
}

func (s *Scheduler) isDue(job *ScheduledJob, now time.Time) bool {
	if job.CronExpr != "" {
		// Cron jobs fire at most once per matching minute.
		if !job.LastRun.IsZero() && now.Truncate(time.Minute).Equal(job.LastRun.Truncate(time.Minute)) {
			return false
		}
		due, err := s.gron.IsDue(job.CronExpr, now)
		if err != nil {
			slog.Warn("invalid cron expression", "job", job.ID, "expr", job.CronExpr, "error", err)
			return false
		}
		return due
	}
	return !job.NextRun.After(now)
}

// Run ticks every second until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Tick(now)
		}
	}
}

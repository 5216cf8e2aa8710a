package orchestrator

import (
	"testing"
	"time"
)

type submitRecord struct {
	agentKey    string
	triggeredBy string
}

func newTestScheduler() (*Scheduler, *[]submitRecord) {
	var got []submitRecord
	s := NewScheduler(func(agentKey string, input any, triggeredBy string) {
		got = append(got, submitRecord{agentKey, triggeredBy})
	})
	return s, &got
}

func TestSchedulerIntervalFiresOnce(t *testing.T) {
	s, got := newTestScheduler()
	now := time.Now()
	s.Add(&ScheduledJob{ID: "scan", AgentKey: "trending", Enabled: true, Interval: time.Minute})

	s.Tick(now)
	if len(*got) != 0 {
		t.Fatalf("job fired before its interval elapsed")
	}

	s.Tick(now.Add(61 * time.Second))
	if len(*got) != 1 {
		t.Fatalf("submits = %d, want 1", len(*got))
	}
	if (*got)[0].triggeredBy != "schedule:scan" {
		t.Fatalf("triggered_by = %q", (*got)[0].triggeredBy)
	}
}

func TestSchedulerNoCatchUp(t *testing.T) {
	s, got := newTestScheduler()
	now := time.Now()
	s.Add(&ScheduledJob{ID: "scan", AgentKey: "trending", Enabled: true, Interval: time.Minute})

	// Ten intervals overdue still fires exactly once, and next_run advances
	// from the firing time.
	late := now.Add(10 * time.Minute)
	s.Tick(late)
	if len(*got) != 1 {
		t.Fatalf("submits = %d, want 1", len(*got))
	}
	s.Tick(late.Add(time.Second))
	if len(*got) != 1 {
		t.Fatalf("overdue job fired twice")
	}
	s.Tick(late.Add(61 * time.Second))
	if len(*got) != 2 {
		t.Fatalf("submits = %d, want 2", len(*got))
	}
}

func TestSchedulerPauseResume(t *testing.T) {
	s, got := newTestScheduler()
	now := time.Now()
	s.Add(&ScheduledJob{ID: "scan", AgentKey: "trending", Enabled: true, Interval: time.Minute})

	if !s.Pause("scan") {
		t.Fatal("pause failed")
	}
	s.Tick(now.Add(5 * time.Minute))
	if len(*got) != 0 {
		t.Fatal("paused job fired")
	}

	if !s.Resume("scan") {
		t.Fatal("resume failed")
	}
	// Resume arms the job to fire on the next tick.
	s.Tick(time.Now().Add(time.Second))
	if len(*got) != 1 {
		t.Fatalf("submits after resume = %d, want 1", len(*got))
	}
	job, _ := s.Get("scan")
	if job.RunCount != 1 {
		t.Fatalf("run_count = %d, want 1", job.RunCount)
	}
}

func TestSchedulerCronMinuteDedup(t *testing.T) {
	s, got := newTestScheduler()
	s.Add(&ScheduledJob{ID: "audit", AgentKey: "rights", Enabled: true, CronExpr: "* * * * *"})

	base := time.Date(2026, 8, 24, 6, 0, 5, 0, time.UTC)
	s.Tick(base)
	s.Tick(base.Add(20 * time.Second))
	if len(*got) != 1 {
		t.Fatalf("cron job fired %d times within one minute, want 1", len(*got))
	}
	s.Tick(base.Add(time.Minute))
	if len(*got) != 2 {
		t.Fatalf("submits = %d, want 2", len(*got))
	}
}

func TestSchedulerReAddReplaces(t *testing.T) {
	s, _ := newTestScheduler()
	s.Add(&ScheduledJob{ID: "scan", AgentKey: "trending", Enabled: true, Interval: time.Minute})
	s.Add(&ScheduledJob{ID: "scan", AgentKey: "trending", Enabled: true, Interval: time.Hour})

	jobs := s.List()
	if len(jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(jobs))
	}
	if jobs[0].Interval != time.Hour {
		t.Fatalf("interval = %s, want 1h", jobs[0].Interval)
	}
}

package orchestrator

import "testing"

func TestQueuePriorityBands(t *testing.T) {
	q := NewQueue()
	a := NewTask("a", nil, PriorityNormal, "")
	b := NewTask("b", nil, PriorityLow, "")
	c := NewTask("c", nil, PriorityHigh, "")
	d := NewTask("d", nil, PriorityCritical, "")
	for _, task := range []*Task{a, b, c, d} {
		q.Submit(task)
	}

	want := []string{"d", "c", "a", "b"}
	for i, key := range want {
		got := q.Pop()
		if got == nil || got.AgentKey != key {
			t.Fatalf("pop %d: got %v, want agent %q", i, got, key)
		}
	}
	if q.Pop() != nil {
		t.Fatal("queue should be empty")
	}
}

func TestQueueFIFOWithinBand(t *testing.T) {
	q := NewQueue()
	first := NewTask("first", nil, PriorityNormal, "")
	second := NewTask("second", nil, PriorityNormal, "")
	third := NewTask("third", nil, PriorityNormal, "")
	q.Submit(first)
	q.Submit(second)
	q.Submit(third)

	for _, want := range []string{"first", "second", "third"} {
		if got := q.Pop(); got.AgentKey != want {
			t.Fatalf("got %q, want %q", got.AgentKey, want)
		}
	}
}

func TestQueueHighPreemptsPendingNormal(t *testing.T) {
	q := NewQueue()
	n1 := NewTask("n1", nil, PriorityNormal, "")
	n2 := NewTask("n2", nil, PriorityNormal, "")
	q.Submit(n1)
	q.Submit(n2)

	h := NewTask("h", nil, PriorityHigh, "")
	q.Submit(h)

	if got := q.Pop(); got.AgentKey != "h" {
		t.Fatalf("high-priority task should dispatch first, got %q", got.AgentKey)
	}
	if got := q.Pop(); got.AgentKey != "n1" {
		t.Fatalf("normal band order broken, got %q", got.AgentKey)
	}
}

func TestQueueCancel(t *testing.T) {
	q := NewQueue()
	keep := NewTask("keep", nil, PriorityNormal, "")
	drop := NewTask("drop", nil, PriorityNormal, "")
	q.Submit(keep)
	q.Submit(drop)

	cancelled, ok := q.Cancel(drop.ID)
	if !ok || cancelled.ID != drop.ID {
		t.Fatalf("cancel failed: ok=%v", ok)
	}
	if _, ok := q.Cancel("no-such-id"); ok {
		t.Fatal("cancel of unknown id should fail")
	}
	if q.Len() != 1 {
		t.Fatalf("len = %d, want 1", q.Len())
	}
	if got := q.Pop(); got.AgentKey != "keep" {
		t.Fatalf("got %q, want keep", got.AgentKey)
	}
}

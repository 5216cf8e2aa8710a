package orchestrator

import "sync"

// Queue is the pending-task queue: one ordered slice with four virtual
// priority bands, FIFO within each band. All mutations are serialized on a
// single mutex; producers (webhooks, scheduler, event fan-out, callbacks)
// submit concurrently, the task-worker is the sole consumer.
type Queue struct {
	mu    sync.Mutex
	items []*Task
}

// NewQueue creates an empty queue.
func NewQueue() *Queue { return &Queue{} }

// Submit inserts t immediately after the last existing task of equal or
// higher priority, preserving FIFO order within the band.
func (q *Queue) Submit(t *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	idx := len(q.items)
	for i := len(q.items) - 1; i >= 0; i-- {
		if q.items[i].Priority <= t.Priority {
			idx = i + 1
			break
		}
		idx = i
	}
	q.items = append(q.items, nil)
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = t
}

// Pop removes and returns the head task (highest priority, oldest within
// band), or nil when the queue is empty.
func (q *Queue) Pop() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	t := q.items[0]
	copy(q.items, q.items[1:])
	q.items[len(q.items)-1] = nil
	q.items = q.items[:len(q.items)-1]
	return t
}

// Cancel removes the pending task with the given id. It never affects tasks
// already popped by the worker. Returns false if no pending task matches.
func (q *Queue) Cancel(id string) (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, t := range q.items {
		if t.ID == id {
			copy(q.items[i:], q.items[i+1:])
			q.items[len(q.items)-1] = nil
			q.items = q.items[:len(q.items)-1]
			return t, true
		}
	}
	return nil, false
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns a copy of the pending tasks in dispatch order.
func (q *Queue) Snapshot() []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Task, len(q.items))
	copy(out, q.items)
	return out
}

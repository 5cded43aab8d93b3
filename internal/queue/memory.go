package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"supportflow/internal/domain"
)

// MemoryQueue implements TaskQueue in process memory. It exists for tests and
// for ephemeral single-process deployments; tasks do not survive a restart.
type MemoryQueue struct {
	mu    sync.Mutex
	tasks []*domain.Task
	ids   map[string]*domain.Task
}

// Ensure MemoryQueue implements TaskQueue.
var _ TaskQueue = (*MemoryQueue)(nil)

// NewMemory creates an empty in-memory task queue.
func NewMemory() *MemoryQueue {
	return &MemoryQueue{ids: map[string]*domain.Task{}}
}

// Enqueue appends a task.
func (q *MemoryQueue) Enqueue(_ context.Context, task *domain.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.ids[task.ID]; exists {
		return fmt.Errorf("insert task %s: duplicate id", task.ID)
	}

	// Stored copy is owned by the queue; callers keep their own. The queue
	// owns the synced flag, so a stored task always starts unsynced.
	stored := *task
	stored.Synced = false
	stored.SyncedAt = nil
	q.tasks = append(q.tasks, &stored)
	q.ids[stored.ID] = &stored
	return nil
}

// ListUnsynced returns unacknowledged tasks in enqueue order.
func (q *MemoryQueue) ListUnsynced(_ context.Context) ([]*domain.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []*domain.Task
	for _, t := range q.tasks {
		if t.Synced {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

// MarkSynced acknowledges the given ids. Unknown and already-synced ids are
// no-ops; the returned count is the number of requested ids.
func (q *MemoryQueue) MarkSynced(_ context.Context, ids []string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now().UTC()
	for _, id := range ids {
		t, ok := q.ids[id]
		if !ok || t.Synced {
			continue
		}
		t.Synced = true
		syncedAt := now
		t.SyncedAt = &syncedAt
	}
	return len(ids), nil
}

// Count returns the total number of tasks ever enqueued.
func (q *MemoryQueue) Count(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks), nil
}

// Ping always succeeds for the in-memory queue.
func (q *MemoryQueue) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (q *MemoryQueue) Close() error { return nil }

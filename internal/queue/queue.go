// Package queue provides the at-least-once task hand-off queue between the
// public API and the local bridge.
package queue

import (
	"context"

	"supportflow/internal/domain"
)

// TaskQueue is the append-only queue bridging the stateless API and the
// polling consumer. Implementations are selected by configuration at
// construction: SQLite-backed in production, in-memory for tests and
// ephemeral deployments.
type TaskQueue interface {
	// Enqueue appends a task unconditionally. There is no dedup by content;
	// a duplicate task ID is a caller error.
	Enqueue(ctx context.Context, task *domain.Task) error

	// ListUnsynced returns all tasks not yet acknowledged by the consumer,
	// oldest first. It never returns a synced task and never mutates the queue.
	ListUnsynced(ctx context.Context) ([]*domain.Task, error)

	// MarkSynced flips synced=false to true for the given ids. It is
	// idempotent: unknown and already-synced ids are no-ops, never errors.
	// The returned count is the number of requested ids, regardless of prior
	// state (the contract the original poll endpoint exposed).
	MarkSynced(ctx context.Context, ids []string) (int, error)

	// Count returns the total number of tasks ever enqueued.
	Count(ctx context.Context) (int, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

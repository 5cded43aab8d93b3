package bridge

import (
	"context"
	"log/slog"
	"time"

	"supportflow/internal/domain"
)

// TaskSource is the queue-facing side of the bridge.
type TaskSource interface {
	FetchPending(ctx context.Context) (*PollResponse, error)
	MarkSynced(ctx context.Context, ids []string) error
}

// Ensure Client implements TaskSource.
var _ TaskSource = (*Client)(nil)

// Materializer converts one task into on-disk artifacts and returns the spec
// folder name.
type Materializer interface {
	Materialize(t *domain.Task) (string, error)
}

// Consumer drives the fixed-interval sync loop. Cycles never overlap: the
// loop is a single goroutine and the next tick waits for the current cycle.
type Consumer struct {
	source   TaskSource
	mat      Materializer
	interval time.Duration
}

// NewConsumer creates a sync consumer.
func NewConsumer(source TaskSource, mat Materializer, interval time.Duration) *Consumer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Consumer{source: source, mat: mat, interval: interval}
}

// Run polls until ctx is cancelled, starting with an immediate first cycle.
func (c *Consumer) Run(ctx context.Context) {
	slog.Info("Sync consumer started", "interval", c.interval)

	c.Cycle(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Cycle(ctx)
		case <-ctx.Done():
			slog.Info("Sync consumer shutting down", "reason", ctx.Err())
			return
		}
	}
}

// Cycle runs one poll-materialize-acknowledge pass. A fetch failure aborts
// the cycle with no mutation; a per-task failure leaves that task unsynced
// for the next cycle. There is no backoff and no retry cap: materialization
// failures are operator-visible and fixable, and tasks are never discarded.
func (c *Consumer) Cycle(ctx context.Context) {
	slog.Info("Checking for new tasks")

	result, err := c.source.FetchPending(ctx)
	if err != nil {
		slog.Error("Fetch failed, cycle aborted", "error", err)
		return
	}

	if len(result.Tasks) == 0 {
		slog.Info("No new tasks")
		return
	}

	slog.Info("Tasks to sync", "count", len(result.Tasks))

	var syncedIDs []string
	for _, t := range result.Tasks {
		project := t.ProjectName
		if project == "" {
			project = t.ProjectID
		}
		slog.Info("Processing task", "task_id", t.ID, "title", t.Title, "project", project)

		folder, err := c.mat.Materialize(t)
		if err != nil {
			slog.Error("Materialization failed, task stays unsynced", "error", err, "task_id", t.ID)
			continue
		}

		slog.Info("Spec folder created", "task_id", t.ID, "folder", folder)
		syncedIDs = append(syncedIDs, t.ID)
	}

	if len(syncedIDs) == 0 {
		return
	}

	if err := c.source.MarkSynced(ctx, syncedIDs); err != nil {
		// Materialization is idempotent enough to tolerate the re-delivery
		// this causes: the tasks will be fetched and processed again.
		slog.Error("Failed to acknowledge synced tasks", "error", err, "count", len(syncedIDs))
		return
	}

	slog.Info("Tasks marked as synced", "count", len(syncedIDs))
}

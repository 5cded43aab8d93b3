package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"supportflow/internal/domain"
)

// SQLiteQueue implements TaskQueue using SQLite. Each task is its own row, so
// enqueue is an atomic append rather than a read-modify-write of one shared
// value, and two producers cannot lose each other's tasks.
type SQLiteQueue struct {
	db *sql.DB
}

// Ensure SQLiteQueue implements TaskQueue.
var _ TaskQueue = (*SQLiteQueue)(nil)

// NewSQLite creates a new SQLite-backed task queue.
func NewSQLite(dbPath string) (*SQLiteQueue, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	q := &SQLiteQueue{db: db}
	if err := q.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return q, nil
}

func (q *SQLiteQueue) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		synced INTEGER NOT NULL DEFAULT 0,
		synced_at INTEGER,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_unsynced ON tasks(created_at) WHERE synced = 0;
	`
	if _, err := q.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (q *SQLiteQueue) Ping(ctx context.Context) error {
	return q.db.PingContext(ctx)
}

// Enqueue appends a task. The full record is stored as JSON; the synced flag
// and timestamps are mirrored into columns so listing and acknowledgment
// never rewrite the payload. The queue owns the synced flag: whatever the
// producer sent, a stored task starts unsynced, keeping the payload in step
// with the column ListUnsynced filters on.
func (q *SQLiteQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	record := *task
	record.Synced = false
	record.SyncedAt = nil

	payload, err := json.Marshal(&record)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	query := `INSERT INTO tasks (id, created_at, synced, payload) VALUES (?, ?, 0, ?)`
	if _, err := q.db.ExecContext(ctx, query, task.ID, task.CreatedAt.Unix(), string(payload)); err != nil {
		return fmt.Errorf("insert task %s: %w", task.ID, err)
	}
	return nil
}

// ListUnsynced returns unacknowledged tasks, oldest first.
func (q *SQLiteQueue) ListUnsynced(ctx context.Context) ([]*domain.Task, error) {
	query := `SELECT payload FROM tasks WHERE synced = 0 ORDER BY created_at, id`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query unsynced tasks: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close unsynced task rows", "error", closeErr)
		}
	}()

	var tasks []*domain.Task
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}

		var task domain.Task
		if err := json.Unmarshal([]byte(payload), &task); err != nil {
			return nil, fmt.Errorf("unmarshal task payload: %w", err)
		}
		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unsynced tasks: %w", err)
	}

	return tasks, nil
}

// MarkSynced acknowledges the given ids. The synced flag is monotonic: the
// guard on synced = 0 means re-acknowledging is a no-op and synced_at is
// written at most once.
func (q *SQLiteQueue) MarkSynced(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin mark synced: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().Unix()
	query := `UPDATE tasks SET synced = 1, synced_at = ? WHERE id = ? AND synced = 0`
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, query, now, id); err != nil {
			return 0, fmt.Errorf("mark task %s synced: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit mark synced: %w", err)
	}

	// Count of requested ids, not matched rows; unknown ids are processed
	// no-ops, not errors.
	return len(ids), nil
}

// Count returns the total number of tasks ever enqueued.
func (q *SQLiteQueue) Count(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (q *SQLiteQueue) Close() error {
	if err := q.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

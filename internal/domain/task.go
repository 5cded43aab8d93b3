// Package domain contains core domain types for the supportflow pipeline.
package domain

import (
	"time"
)

// TaskStatus describes the lifecycle state of a queued task.
type TaskStatus string

const (
	// TaskStatusPending is the status assigned to every freshly assembled task.
	TaskStatusPending TaskStatus = "pending"
)

// Screenshot is an attached image carried on a task. Data holds the encoded
// payload, usually a data URL (`data:image/png;base64,...`). Index is the
// zero-based submission position and must match the slice position.
type Screenshot struct {
	Index int    `json:"index"`
	Data  string `json:"data"`
}

// ConsoleLog is a browser console entry captured at report time.
type ConsoleLog struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Stack     string `json:"stack,omitempty"`
}

// IsError reports whether the entry represents an error-level capture.
func (l ConsoleLog) IsError() bool {
	return l.Type == "error" || l.Type == "uncaught_error" || l.Type == "unhandled_rejection"
}

// PageInfo describes the page the report was filed from.
type PageInfo struct {
	URL       string `json:"url"`
	UserAgent string `json:"userAgent,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Task is the unit of hand-off between the public API and the local bridge.
// The whole record is immutable after assembly except Synced and SyncedAt,
// which are flipped exactly once by the queue when the bridge acknowledges
// a successful materialization.
type Task struct {
	ID          string     `json:"id"`
	CreatedAt   time.Time  `json:"createdAt"`
	Status      TaskStatus `json:"status"`
	Synced      bool       `json:"synced"`
	SyncedAt    *time.Time `json:"syncedAt,omitempty"`
	ProjectID   string     `json:"projectId,omitempty"`
	ProjectName string     `json:"projectName,omitempty"`

	Title       string   `json:"title"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
	Priority    Priority `json:"priority"`
	Category    Category `json:"category"`
	Component   string   `json:"component,omitempty"`

	Analysis    Analysis     `json:"analysis"`
	Screenshots []Screenshot `json:"screenshots"`
	ConsoleLogs []ConsoleLog `json:"consoleLogs,omitempty"`
	PageInfo    *PageInfo    `json:"pageInfo,omitempty"`
}

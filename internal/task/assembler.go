// Package task assembles triage output into immutable queue records.
package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"supportflow/internal/domain"
)

// Input gathers everything that rides on a task.
type Input struct {
	ProjectID   string
	ProjectName string
	Report      *domain.BugReport
	Analysis    domain.Analysis
	Images      []string
	ConsoleLogs []domain.ConsoleLog
	PageInfo    *domain.PageInfo
}

// Assemble merges a triage report, its analysis and the attachments into a
// new pending task. Attachment bytes are copied verbatim with stable
// zero-based indices matching submission order; the materializer relies on
// that ordering for filenames.
func Assemble(in Input) *domain.Task {
	now := time.Now().UTC()

	screenshots := make([]domain.Screenshot, len(in.Images))
	for i, data := range in.Images {
		screenshots[i] = domain.Screenshot{Index: i, Data: data}
	}

	return &domain.Task{
		ID:          newID(now),
		CreatedAt:   now,
		Status:      domain.TaskStatusPending,
		Synced:      false,
		ProjectID:   in.ProjectID,
		ProjectName: in.ProjectName,

		Title:       in.Report.Title,
		Description: in.Report.Description,
		Steps:       in.Report.Steps,
		Priority:    in.Report.Priority,
		Category:    in.Report.Category,
		Component:   in.Report.Component,

		Analysis:    in.Analysis,
		Screenshots: screenshots,
		ConsoleLogs: in.ConsoleLogs,
		PageInfo:    in.PageInfo,
	}
}

// newID returns a process-unique task identifier. The millisecond prefix
// keeps ids roughly time-ordered for humans; the random suffix keeps two
// tasks assembled in the same millisecond distinct.
func newID(now time.Time) string {
	return fmt.Sprintf("task-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

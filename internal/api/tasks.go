package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"supportflow/internal/domain"
	"supportflow/internal/events"
)

// StoreTask enqueues a fully assembled task. It is the internal producer
// surface, authenticated by the X-Internal-Secret header.
func (h *Handler) StoreTask(w http.ResponseWriter, r *http.Request) {
	var t domain.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		Error(w, http.StatusBadRequest, "invalid task")
		return
	}
	if t.ID == "" {
		Error(w, http.StatusBadRequest, "invalid task")
		return
	}

	if err := h.queue.Enqueue(r.Context(), &t); err != nil {
		slog.Error("Failed to store task", "error", err, "task_id", t.ID)
		Error(w, http.StatusInternalServerError, "failed to store task")
		return
	}

	slog.Info("Task stored", "task_id", t.ID, "title", t.Title)
	h.hub.Publish(events.Event{Event: events.EventTaskEnqueued, TaskID: t.ID, Title: t.Title})

	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"taskId":  t.ID,
	})
}

// PollTasks returns unsynced tasks for the bridge.
func (h *Handler) PollTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.queue.ListUnsynced(r.Context())
	if err != nil {
		slog.Error("Failed to list unsynced tasks", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	total, err := h.queue.Count(r.Context())
	if err != nil {
		slog.Error("Failed to count tasks", "error", err)
		Error(w, http.StatusInternalServerError, "failed to count tasks")
		return
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"tasks":    tasks,
		"total":    total,
		"unsynced": len(tasks),
	})
}

type acknowledgeRequest struct {
	TaskIDs []string `json:"taskIds"`
}

// AcknowledgeTasks marks tasks as synced after the bridge has materialized
// them.
func (h *Handler) AcknowledgeTasks(w http.ResponseWriter, r *http.Request) {
	var req acknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TaskIDs == nil {
		Error(w, http.StatusBadRequest, "taskIds array required")
		return
	}

	count, err := h.queue.MarkSynced(r.Context(), req.TaskIDs)
	if err != nil {
		slog.Error("Failed to mark tasks synced", "error", err, "ids", req.TaskIDs)
		Error(w, http.StatusInternalServerError, "failed to mark tasks synced")
		return
	}

	for _, id := range req.TaskIDs {
		h.hub.Publish(events.Event{Event: events.EventTaskSynced, TaskID: id})
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"synced":  count,
	})
}

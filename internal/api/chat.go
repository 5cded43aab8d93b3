package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"supportflow/internal/domain"
	"supportflow/internal/events"
	"supportflow/internal/task"
	"supportflow/internal/triage"
)

type startChatRequest struct {
	ProjectID string `json:"projectId"`
}

type imagePayload struct {
	Data string `json:"data"`
}

type chatMessageRequest struct {
	SessionID   string              `json:"sessionId"`
	ProjectID   string              `json:"projectId"`
	Message     string              `json:"message"`
	Images      []imagePayload      `json:"images"`
	History     []domain.Turn       `json:"history"`
	ConsoleLogs []domain.ConsoleLog `json:"consoleLogs"`
	PageInfo    *domain.PageInfo    `json:"pageInfo"`
}

// Terminal chat messages shown once triage completes.
const (
	completeIdentifiedMessage = "**Problem identified!**\n\nThanks for the report. An agent will take it from here right away!"
	completeReceivedMessage   = "**Got it!**\n\nThanks for the report. An agent will analyze it and follow up shortly!"
)

// StartChat opens a new intake conversation. The session ID is opaque and
// carries no server-side state; all conversation state is client-echoed.
func (h *Handler) StartChat(w http.ResponseWriter, r *http.Request) {
	var req startChatRequest
	if r.Body != nil {
		// An empty or absent body means the default project.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	projectID, project := h.projects.Get(req.ProjectID)
	sessionID := "session_" + uuid.NewString()

	JSON(w, http.StatusOK, map[string]interface{}{
		"sessionId":   sessionID,
		"projectId":   projectID,
		"projectName": project.Name,
		"message":     project.Welcome,
	})
}

// ChatMessage advances an intake conversation by one turn. It either returns
// a clarifying question plus the extended history, or completes triage:
// analyze, assemble, enqueue, and report the task ID back to the widget.
func (h *Handler) ChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.SessionID == "" {
		Error(w, http.StatusBadRequest, "session id required")
		return
	}
	if req.Message == "" && len(req.Images) == 0 {
		Error(w, http.StatusBadRequest, "message or image required")
		return
	}

	images := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, img.Data)
	}

	projectID, project := h.projects.Get(req.ProjectID)

	result, err := h.engine.Advance(r.Context(), project, req.Message, images, req.History)
	if err != nil {
		slog.Error("Triage turn failed", "error", err, "session_id", req.SessionID)
		Error(w, http.StatusInternalServerError, "processing failed")
		return
	}

	if result.Type == triage.ResultQuestion {
		JSON(w, http.StatusOK, map[string]interface{}{
			"type":    "message",
			"message": result.Message,
			"history": result.History,
		})
		return
	}

	analysis := h.analyzer.Analyze(r.Context(), result.Report)

	t := task.Assemble(task.Input{
		ProjectID:   projectID,
		ProjectName: project.Name,
		Report:      result.Report,
		Analysis:    analysis,
		Images:      images,
		ConsoleLogs: req.ConsoleLogs,
		PageInfo:    req.PageInfo,
	})

	// An enqueue failure is logged and swallowed: the user still gets a
	// success message, at the documented cost of a possibly lost task.
	if err := h.queue.Enqueue(r.Context(), t); err != nil {
		slog.Error("Failed to enqueue task, report lost", "error", err, "task_id", t.ID, "title", t.Title)
	} else {
		slog.Info("Task enqueued", "task_id", t.ID, "title", t.Title, "project_id", projectID, "screenshots", len(t.Screenshots))
		h.hub.Publish(events.Event{Event: events.EventTaskEnqueued, TaskID: t.ID, Title: t.Title})
	}

	message := completeReceivedMessage
	if analysis.Identified {
		message = completeIdentifiedMessage
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"type":    "complete",
		"message": message,
		"taskId":  t.ID,
	})
}

// Package api provides HTTP handlers for the supportflow API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"supportflow/internal/analyze"
	"supportflow/internal/config"
	"supportflow/internal/events"
	"supportflow/internal/middleware"
	"supportflow/internal/queue"
	"supportflow/internal/triage"
)

// Handler holds the dependencies shared by all API endpoints.
type Handler struct {
	engine   *triage.Engine
	analyzer *analyze.Analyzer
	queue    queue.TaskQueue
	projects *config.Registry
	hub      *events.Hub
	secret   string
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(engine *triage.Engine, analyzer *analyze.Analyzer, q queue.TaskQueue, projects *config.Registry, hub *events.Hub, secret string) *Handler {
	return &Handler{
		engine:   engine,
		analyzer: analyzer,
		queue:    q,
		projects: projects,
		hub:      hub,
		secret:   secret,
	}
}

// RegisterRoutes registers all API routes. The chat surface is public; the
// enqueue and poll surfaces sit behind the shared-secret trust boundary.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat/start", h.StartChat)
		r.Post("/chat/message", h.ChatMessage)

		r.With(middleware.RequireInternalSecret(h.secret)).
			Post("/tasks/store", h.StoreTask)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireBearer(h.secret))
			r.Get("/tasks/poll", h.PollTasks)
			r.Post("/tasks/poll", h.AcknowledgeTasks)
		})
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

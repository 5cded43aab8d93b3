// Package events broadcasts task lifecycle events to connected ops
// dashboards over WebSocket.
package events

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Event names published by the pipeline.
const (
	EventTaskEnqueued = "task_enqueued"
	EventTaskSynced   = "task_synced"
)

// Event is one task lifecycle notification.
type Event struct {
	Event  string    `json:"event"`
	TaskID string    `json:"taskId"`
	Title  string    `json:"title,omitempty"`
	At     time.Time `json:"at"`
}

// Hub fans events out to subscribers. Publishing never blocks: a subscriber
// that cannot keep up drops events rather than stalling the pipeline.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: map[chan Event]struct{}{}}
}

// Publish delivers an event to all current subscribers.
func (h *Hub) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (h *Hub) subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// ServeHTTP upgrades the connection and streams events until the client goes
// away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "feed closed"); closeErr != nil {
			slog.Debug("WebSocket close error", "error", closeErr)
		}
	}()

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	// The feed is write-only; CloseRead keeps control frames processed and
	// cancels the context as soon as the client goes away.
	ctx := ws.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-ch:
			payload, err := json.Marshal(evt)
			if err != nil {
				slog.Warn("Failed to marshal event", "error", err)
				continue
			}
			if err := ws.Write(ctx, websocket.MessageText, payload); err != nil {
				slog.Debug("WebSocket write error, dropping subscriber", "error", err)
				return
			}
		}
	}
}

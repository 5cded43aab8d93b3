package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"supportflow/internal/analyze"
	"supportflow/internal/config"
	"supportflow/internal/events"
	"supportflow/internal/llm"
	"supportflow/internal/middleware"
	"supportflow/internal/queue"
	"supportflow/internal/triage"
)

const testSecret = "test-secret"

// scriptedCompleter returns its replies in order, one per Complete call.
type scriptedCompleter struct {
	replies []string
	calls   int
}

func (s *scriptedCompleter) Complete(_ context.Context, _ llm.Request) (string, error) {
	if s.calls >= len(s.replies) {
		return s.replies[len(s.replies)-1], nil
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, nil
}

func newTestServer(t *testing.T, replies ...string) (*httptest.Server, queue.TaskQueue) {
	t.Helper()

	completer := &scriptedCompleter{replies: replies}
	q := queue.NewMemory()
	registry := &config.Registry{
		DefaultSpecsDir: t.TempDir(),
		Projects: map[string]config.Project{
			"demo": {Name: "Demo App", Components: []string{"checkout", "login"}},
		},
	}

	h := NewHandler(
		triage.NewEngine(completer, triage.DefaultEngineConfig()),
		analyze.New(completer, ""),
		q,
		registry,
		events.NewHub(),
		testSecret,
	)

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, q
}

func postJSON(t *testing.T, url string, body interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp, decoded
}

func TestStartChatReturnsSessionAndWelcome(t *testing.T) {
	srv, _ := newTestServer(t, "unused")

	resp, body := postJSON(t, srv.URL+"/api/chat/start", map[string]string{"projectId": "demo"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	sessionID, _ := body["sessionId"].(string)
	if !strings.HasPrefix(sessionID, "session_") {
		t.Errorf("Expected session_ prefix, got %q", sessionID)
	}
	if body["projectId"] != "demo" {
		t.Errorf("Expected projectId demo, got %v", body["projectId"])
	}
	if body["projectName"] != "Demo App" {
		t.Errorf("Expected projectName Demo App, got %v", body["projectName"])
	}
	if msg, _ := body["message"].(string); msg == "" {
		t.Error("Expected a welcome message")
	}
}

func TestStartChatUnknownProjectFallsBack(t *testing.T) {
	srv, _ := newTestServer(t, "unused")

	resp, body := postJSON(t, srv.URL+"/api/chat/start", map[string]string{"projectId": "nope"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if body["projectId"] != config.DefaultProjectID {
		t.Errorf("Expected default project, got %v", body["projectId"])
	}
}

func TestChatMessageValidation(t *testing.T) {
	srv, _ := newTestServer(t, "unused")

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing session", map[string]interface{}{"message": "hello"}},
		{"missing message and images", map[string]interface{}{"sessionId": "session_x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postJSON(t, srv.URL+"/api/chat/message", tt.body, nil)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", resp.StatusCode)
			}
			if body["error"] == nil {
				t.Error("Expected an error message")
			}
		})
	}
}

func TestChatMessageQuestionTurn(t *testing.T) {
	srv, _ := newTestServer(t, "Which browser are you using?")

	resp, body := postJSON(t, srv.URL+"/api/chat/message", map[string]interface{}{
		"sessionId": "session_x",
		"message":   "the page is broken",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if body["type"] != "message" {
		t.Fatalf("Expected type message, got %v", body["type"])
	}
	if body["message"] != "Which browser are you using?" {
		t.Errorf("Unexpected message: %v", body["message"])
	}

	history, _ := body["history"].([]interface{})
	if len(history) != 2 {
		t.Fatalf("Expected history of 2 turns, got %d", len(history))
	}
}

func TestChatMessageCompleteEnqueuesTask(t *testing.T) {
	report := `{"ready": true, "title": "Checkout blank page", "description": "Blank after payment", "steps": ["open checkout", "pay"], "priority": "high", "category": "bug", "component": "checkout"}`
	analysis := `{"identified": true, "confidence": "high", "probable_file": "checkout/pay.go", "probable_cause": "nil deref", "suggestion": "guard response"}`

	srv, q := newTestServer(t, report, analysis)

	resp, body := postJSON(t, srv.URL+"/api/chat/message", map[string]interface{}{
		"sessionId": "session_x",
		"projectId": "demo",
		"message":   "blank page on checkout",
		"consoleLogs": []map[string]interface{}{
			{"type": "error", "message": "TypeError: x is null"},
		},
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if body["type"] != "complete" {
		t.Fatalf("Expected type complete, got %v", body["type"])
	}
	taskID, _ := body["taskId"].(string)
	if !strings.HasPrefix(taskID, "task-") {
		t.Errorf("Expected task- id, got %q", taskID)
	}
	if msg, _ := body["message"].(string); !strings.Contains(msg, "Problem identified") {
		t.Errorf("Expected identified completion message, got %q", msg)
	}

	tasks, err := q.ListUnsynced(context.Background())
	if err != nil {
		t.Fatalf("ListUnsynced failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 enqueued task, got %d", len(tasks))
	}
	task := tasks[0]
	if task.ID != taskID {
		t.Errorf("Queued id %q does not match response id %q", task.ID, taskID)
	}
	if task.Title != "Checkout blank page" {
		t.Errorf("Unexpected title: %q", task.Title)
	}
	if task.ProjectID != "demo" {
		t.Errorf("Unexpected project: %q", task.ProjectID)
	}
	if !task.Analysis.Identified {
		t.Error("Expected analysis to be attached")
	}
	if len(task.ConsoleLogs) != 1 {
		t.Errorf("Expected console logs to be attached, got %d", len(task.ConsoleLogs))
	}
}

func TestChatMessageFallbackCompletionMessage(t *testing.T) {
	report := `{"ready": true, "title": "Something odd", "description": "d", "priority": "low", "category": "other"}`

	// Second reply is not valid analysis JSON, so the fallback applies and the
	// neutral completion message is used.
	srv, _ := newTestServer(t, report, "I cannot tell.")

	resp, body := postJSON(t, srv.URL+"/api/chat/message", map[string]interface{}{
		"sessionId": "session_x",
		"message":   "something odd",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if msg, _ := body["message"].(string); !strings.Contains(msg, "Got it") {
		t.Errorf("Expected neutral completion message, got %q", msg)
	}
}

func TestPollRequiresBearer(t *testing.T) {
	srv, _ := newTestServer(t, "unused")

	resp, err := http.Get(srv.URL + "/api/tasks/poll")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/tasks/poll", nil)
	req.Header.Set("Authorization", "Bearer wrong-secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong token, got %d", resp.StatusCode)
	}
}

func TestStoreRequiresInternalSecret(t *testing.T) {
	srv, _ := newTestServer(t, "unused")

	resp, _ := postJSON(t, srv.URL+"/api/tasks/store", map[string]string{"id": "task-1"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 without secret, got %d", resp.StatusCode)
	}

	resp, body := postJSON(t, srv.URL+"/api/tasks/store", map[string]string{"id": "task-1"},
		map[string]string{middleware.InternalSecretHeader: testSecret})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 with secret, got %d", resp.StatusCode)
	}
	if body["success"] != true || body["taskId"] != "task-1" {
		t.Errorf("Unexpected store response: %v", body)
	}
}

func TestStoreRejectsTaskWithoutID(t *testing.T) {
	srv, _ := newTestServer(t, "unused")

	resp, _ := postJSON(t, srv.URL+"/api/tasks/store", map[string]string{"title": "no id"},
		map[string]string{middleware.InternalSecretHeader: testSecret})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestPollAndAcknowledgeRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, "unused")
	auth := map[string]string{"Authorization": "Bearer " + testSecret}

	// Seed two tasks through the store endpoint.
	for _, id := range []string{"task-1", "task-2"} {
		resp, _ := postJSON(t, srv.URL+"/api/tasks/store", map[string]string{"id": id, "title": "t"},
			map[string]string{middleware.InternalSecretHeader: testSecret})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Store %s failed: %d", id, resp.StatusCode)
		}
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/tasks/poll", nil)
	req.Header.Set("Authorization", "Bearer "+testSecret)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	var poll struct {
		Tasks    []map[string]interface{} `json:"tasks"`
		Total    int                      `json:"total"`
		Unsynced int                      `json:"unsynced"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&poll); err != nil {
		t.Fatalf("Failed to decode poll response: %v", err)
	}
	resp.Body.Close()
	if poll.Unsynced != 2 || poll.Total != 2 || len(poll.Tasks) != 2 {
		t.Fatalf("Unexpected poll state: %+v", poll)
	}

	ackResp, ackBody := postJSON(t, srv.URL+"/api/tasks/poll",
		map[string]interface{}{"taskIds": []string{"task-1", "task-2"}}, auth)
	if ackResp.StatusCode != http.StatusOK {
		t.Fatalf("Acknowledge failed: %d", ackResp.StatusCode)
	}
	if ackBody["success"] != true {
		t.Errorf("Expected success, got %v", ackBody)
	}
	if synced, _ := ackBody["synced"].(float64); int(synced) != 2 {
		t.Errorf("Expected synced 2, got %v", ackBody["synced"])
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/tasks/poll", nil)
	req.Header.Set("Authorization", "Bearer "+testSecret)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Second poll failed: %v", err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&poll); err != nil {
		t.Fatalf("Failed to decode poll response: %v", err)
	}
	resp.Body.Close()
	if poll.Unsynced != 0 || poll.Total != 2 {
		t.Errorf("Expected 0 unsynced of 2 total after acknowledge, got %+v", poll)
	}
}

func TestAcknowledgeRequiresTaskIDs(t *testing.T) {
	srv, _ := newTestServer(t, "unused")
	auth := map[string]string{"Authorization": "Bearer " + testSecret}

	resp, _ := postJSON(t, srv.URL+"/api/tasks/poll", map[string]interface{}{}, auth)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 without taskIds, got %d", resp.StatusCode)
	}
}

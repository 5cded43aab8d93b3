package bridge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"supportflow/internal/domain"
)

func TestFetchPendingSendsBearerAndDecodes(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/tasks/poll" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(PollResponse{
			Tasks:    []*domain.Task{{ID: "task-1", Title: "Broken page"}},
			Total:    3,
			Unsynced: 1,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "s3cret", time.Second)
	result, err := client.FetchPending(t.Context())
	if err != nil {
		t.Fatalf("FetchPending failed: %v", err)
	}

	if gotAuth != "Bearer s3cret" {
		t.Errorf("Expected bearer header, got %q", gotAuth)
	}
	if len(result.Tasks) != 1 || result.Tasks[0].ID != "task-1" {
		t.Errorf("Unexpected tasks: %+v", result.Tasks)
	}
	if result.Total != 3 || result.Unsynced != 1 {
		t.Errorf("Unexpected counters: total=%d unsynced=%d", result.Total, result.Unsynced)
	}
}

func TestFetchPendingNonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "wrong", time.Second)
	if _, err := client.FetchPending(t.Context()); err == nil {
		t.Fatal("Expected error on 401 response")
	}
}

func TestMarkSyncedPostsTaskIDs(t *testing.T) {
	var gotBody map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/tasks/poll" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "synced": 2}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "s3cret", time.Second)
	if err := client.MarkSynced(t.Context(), []string{"task-1", "task-2"}); err != nil {
		t.Fatalf("MarkSynced failed: %v", err)
	}

	ids := gotBody["taskIds"]
	if len(ids) != 2 || ids[0] != "task-1" || ids[1] != "task-2" {
		t.Errorf("Unexpected taskIds: %v", ids)
	}
}

func TestMarkSyncedNonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "s3cret", time.Second)
	if err := client.MarkSynced(t.Context(), []string{"task-1"}); err == nil {
		t.Fatal("Expected error on 500 response")
	}
}

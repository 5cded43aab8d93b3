// Package bridge implements the local sync consumer: it polls the public API
// for unsynced tasks, materializes them on disk and acknowledges success.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"supportflow/internal/domain"
)

// PollResponse is the consumer-facing poll payload.
type PollResponse struct {
	Tasks    []*domain.Task `json:"tasks"`
	Total    int            `json:"total"`
	Unsynced int            `json:"unsynced"`
}

// Client talks to the task poll endpoints with the shared bearer secret.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

// NewClient creates a poll client for the given API base URL.
func NewClient(baseURL, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchPending retrieves the unsynced tasks.
func (c *Client) FetchPending(ctx context.Context) (*PollResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tasks/poll", nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll tasks: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll tasks: HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var out PollResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode poll response: %w", err)
	}
	return &out, nil
}

// MarkSynced acknowledges successfully materialized tasks.
func (c *Client) MarkSynced(ctx context.Context, ids []string) error {
	body, err := json.Marshal(map[string][]string{"taskIds": ids})
	if err != nil {
		return fmt.Errorf("marshal task ids: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/tasks/poll", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build ack request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mark synced: HTTP %d", resp.StatusCode)
	}
	return nil
}

// Package llm provides the language-model capability used by triage and
// analysis. The capability is deliberately opaque: given conversation context,
// return one free-form utterance. Callers decide what the text means.
package llm

import (
	"context"

	"supportflow/internal/domain"
)

// Request is one completion call. History carries the client-echoed
// conversation; UserText and Images form the new user turn.
type Request struct {
	Model       string
	System      string
	History     []domain.Turn
	UserText    string
	Images      []string
	Temperature float64
	MaxTokens   int64
}

// Completer is the interface implemented by concrete model clients.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

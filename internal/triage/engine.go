// Package triage implements the conversational intake state machine that
// turns a free-form bug description into a structured report within a bounded
// number of clarifying questions.
package triage

import (
	"context"
	"fmt"

	"supportflow/internal/config"
	"supportflow/internal/domain"
	"supportflow/internal/llm"
)

// ResultType discriminates the two outcomes of an Advance call.
type ResultType string

const (
	// ResultQuestion means the conversation continues with a clarifying question.
	ResultQuestion ResultType = "question"
	// ResultReport means triage is complete and Report is set.
	ResultReport ResultType = "report"
)

// Result is the outcome of one conversation turn. For a question result,
// History is the updated conversation the caller must echo back on the next
// call; the engine itself holds no state between calls.
type Result struct {
	Type    ResultType
	Message string
	History []domain.Turn
	Report  *domain.BugReport
}

// EngineConfig tunes the triage engine.
type EngineConfig struct {
	// TextModel handles text-only turns; VisionModel is selected automatically
	// whenever the turn carries attachments.
	TextModel   string
	VisionModel string
	// MaxQuestions caps the number of clarifying questions per conversation.
	MaxQuestions int
	Temperature  float64
	MaxTokens    int64
}

// DefaultEngineConfig returns the standard triage settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TextModel:    "gpt-4o-mini",
		VisionModel:  "gpt-4o",
		MaxQuestions: 2,
		Temperature:  0.7,
		MaxTokens:    500,
	}
}

// Engine drives the intake conversation against a language-model capability.
type Engine struct {
	completer llm.Completer
	cfg       EngineConfig
}

// NewEngine creates a triage engine.
func NewEngine(completer llm.Completer, cfg EngineConfig) *Engine {
	if cfg.MaxQuestions <= 0 {
		cfg.MaxQuestions = 2
	}
	return &Engine{completer: completer, cfg: cfg}
}

// Advance processes one user turn. It counts prior assistant turns in the
// echoed history to enforce the question cap, calls the model, and either
// returns the extracted final report or the model text as a clarifying
// question together with the extended history.
func (e *Engine) Advance(ctx context.Context, project config.Project, userMessage string, images []string, history []domain.Turn) (*Result, error) {
	asked := domain.QuestionCount(history)
	system := systemPrompt(project, asked, e.cfg.MaxQuestions)

	model := e.cfg.TextModel
	if len(images) > 0 {
		model = e.cfg.VisionModel
	}

	reply, err := e.completer.Complete(ctx, llm.Request{
		Model:       model,
		System:      system,
		History:     history,
		UserText:    userMessage,
		Images:      images,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("triage completion: %w", err)
	}

	if report, ok := ExtractReport(reply); ok {
		return &Result{Type: ResultReport, Report: report}, nil
	}

	updated := make([]domain.Turn, 0, len(history)+2)
	updated = append(updated, history...)
	updated = append(updated,
		domain.Turn{Role: domain.RoleUser, Content: userMessage},
		domain.Turn{Role: domain.RoleAssistant, Content: reply},
	)

	return &Result{Type: ResultQuestion, Message: reply, History: updated}, nil
}

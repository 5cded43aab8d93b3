// Package analyze produces a best-effort code-location hypothesis for a
// structured bug report. Analysis never blocks task creation: every failure
// mode collapses into the fixed fallback value.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"supportflow/internal/domain"
	"supportflow/internal/llm"
)

// Analyzer invokes the language-model capability with a low-temperature,
// JSON-only instruction.
type Analyzer struct {
	completer llm.Completer
	model     string
}

// New creates an analyzer using the given model.
func New(completer llm.Completer, model string) *Analyzer {
	if model == "" {
		model = "gpt-4o"
	}
	return &Analyzer{completer: completer, model: model}
}

const analysisSystem = "You are an expert in application debugging. Respond only with valid JSON."

// Analyze asks the model where the reported bug probably lives. On any
// failure (capability error, timeout, malformed output) it returns the
// fallback analysis and logs the reason.
func (a *Analyzer) Analyze(ctx context.Context, report *domain.BugReport) domain.Analysis {
	reply, err := a.completer.Complete(ctx, llm.Request{
		Model:       a.model,
		System:      analysisSystem,
		UserText:    analysisPrompt(report),
		Temperature: 0.3,
		MaxTokens:   500,
	})
	if err != nil {
		slog.Warn("Analysis unavailable, using fallback", "error", err, "title", report.Title)
		return domain.FallbackAnalysis()
	}

	var analysis domain.Analysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &analysis); err != nil {
		slog.Warn("Analysis output unparseable, using fallback", "error", err, "title", report.Title)
		return domain.FallbackAnalysis()
	}
	return analysis
}

func analysisPrompt(report *domain.BugReport) string {
	var b strings.Builder

	b.WriteString("You are an expert developer analyzing a bug report.\n\n")
	b.WriteString("## Bug Report\n")
	fmt.Fprintf(&b, "**Title:** %s\n", report.Title)
	fmt.Fprintf(&b, "**Description:** %s\n", report.Description)
	fmt.Fprintf(&b, "**Category:** %s\n", report.Category)
	component := report.Component
	if component == "" {
		component = "not specified"
	}
	fmt.Fprintf(&b, "**Probable component:** %s\n\n", component)

	b.WriteString("## Reproduction steps\n")
	if len(report.Steps) == 0 {
		b.WriteString("Not specified\n")
	} else {
		for i, step := range report.Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}

	b.WriteString(`
Based on this description, identify:
1. The probable component/file involved
2. The probable cause of the bug
3. A suggested fix

Respond in JSON:
{
  "identified": true/false,
  "confidence": "high|medium|low",
  "probable_file": "probable/path/file.ext",
  "probable_cause": "Short description of the cause",
  "suggestion": "Suggested fix"
}`)

	return b.String()
}

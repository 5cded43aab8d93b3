package materialize

import (
	"fmt"
	"strings"
	"time"

	"supportflow/internal/domain"
)

// Metadata is the structured companion document the downstream automation
// reads next to each spec. Category, complexity and impact are derived from
// the report via fixed lookup tables.
type Metadata struct {
	SourceType                string            `json:"sourceType"`
	Model                     string            `json:"model"`
	ThinkingLevel             string            `json:"thinkingLevel"`
	IsAutoProfile             bool              `json:"isAutoProfile"`
	PhaseModels               map[string]string `json:"phaseModels"`
	PhaseThinking             map[string]string `json:"phaseThinking"`
	BaseBranch                string            `json:"baseBranch"`
	Category                  string            `json:"category"`
	Complexity                string            `json:"complexity"`
	Impact                    string            `json:"impact"`
	AttachedImages            []string          `json:"attachedImages"`
	RequireReviewBeforeCoding bool              `json:"requireReviewBeforeCoding"`
}

// Requirements is the acceptance-criteria document.
type Requirements struct {
	TaskDescription string `json:"task_description"`
	WorkflowType    string `json:"workflow_type"`
}

// ConsoleLogArtifact wraps captured browser logs for the side artifact.
type ConsoleLogArtifact struct {
	CapturedAt string              `json:"capturedAt"`
	PageURL    string              `json:"pageUrl"`
	UserAgent  string              `json:"userAgent"`
	Logs       []domain.ConsoleLog `json:"logs"`
}

var categoryMapping = map[domain.Category]string{
	"bug":         "bug_fix",
	"feature":     "feature",
	"improvement": "improvement",
	"refactoring": "refactoring",
}

var complexityMapping = map[domain.Priority]string{
	"low":      "low",
	"medium":   "medium",
	"high":     "high",
	"critical": "high",
}

func mappedCategory(c domain.Category) string {
	if v, ok := categoryMapping[c]; ok {
		return v
	}
	return "bug_fix"
}

func mappedComplexity(p domain.Priority) string {
	if v, ok := complexityMapping[p]; ok {
		return v
	}
	return "medium"
}

// RenderMetadata builds the metadata document for a task.
func RenderMetadata(t *domain.Task) Metadata {
	phases := []string{"spec", "planning", "coding", "qa"}
	phaseModels := make(map[string]string, len(phases))
	phaseThinking := make(map[string]string, len(phases))
	for _, phase := range phases {
		phaseModels[phase] = "opus"
		phaseThinking[phase] = "ultrathink"
	}

	attached := make([]string, len(t.Screenshots))
	for i, s := range t.Screenshots {
		attached[i] = fmt.Sprintf("screenshots/screenshot-%d.png", s.Index)
	}

	return Metadata{
		SourceType:     "widget",
		Model:          "opus",
		ThinkingLevel:  "ultrathink",
		PhaseModels:    phaseModels,
		PhaseThinking:  phaseThinking,
		BaseBranch:     "main",
		Category:       mappedCategory(t.Category),
		Complexity:     mappedComplexity(t.Priority),
		Impact:         mappedComplexity(t.Priority),
		AttachedImages: attached,
	}
}

// RenderRequirements builds the requirements document for a task.
func RenderRequirements(t *domain.Task) Requirements {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.Title)
	fmt.Fprintf(&b, "## Description\n%s\n\n", t.Description)
	fmt.Fprintf(&b, "## Reproduction steps\n%s\n\n", renderSteps(t.Steps))
	b.WriteString(`## Acceptance criteria
- The bug is reproduced and understood
- The fix is implemented
- Tests pass
- No regressions
`)

	return Requirements{
		TaskDescription: b.String(),
		WorkflowType:    "bug_fix",
	}
}

// RenderSpec builds the human-readable spec document for a task.
func RenderSpec(t *domain.Task, specNumber string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t.Title)
	fmt.Fprintf(&b, "## Goal\nFix the bug: %s\n\n", t.Title)
	fmt.Fprintf(&b, "## Description\n%s\n\n", t.Description)

	b.WriteString(screenshotsSection(t))
	b.WriteString(consoleLogsSection(t))
	b.WriteString(pageInfoSection(t))

	b.WriteString("## Context\n")
	fmt.Fprintf(&b, "- **Category**: %s\n", orDefault(string(t.Category), "not specified"))
	fmt.Fprintf(&b, "- **Component**: %s\n", orDefault(t.Component, "to be determined"))
	fmt.Fprintf(&b, "- **Priority**: %s\n\n", orDefault(string(t.Priority), "medium"))

	fmt.Fprintf(&b, "## Reproduction steps\n%s\n\n", renderSteps(t.Steps))

	b.WriteString("## Preliminary analysis\n")
	fmt.Fprintf(&b, "- **Probable file**: %s\n", orDefault(t.Analysis.ProbableFile, "to be determined"))
	fmt.Fprintf(&b, "- **Probable cause**: %s\n", orDefault(t.Analysis.ProbableCause, "to be analyzed"))
	fmt.Fprintf(&b, "- **Suggestion**: %s\n", orDefault(t.Analysis.Suggestion, "analyze the code"))
	fmt.Fprintf(&b, "- **Confidence**: %s\n\n", orDefault(string(t.Analysis.Confidence), "n/a"))

	b.WriteString(`## Acceptance criteria
- [ ] The bug is reproduced and understood
- [ ] The fix is implemented
- [ ] Tests pass
- [ ] No regressions

`)

	b.WriteString("## Notes\n")
	fmt.Fprintf(&b, "- ID: %s\n", t.ID)
	project := t.ProjectName
	if project == "" {
		project = orDefault(t.ProjectID, "default")
	}
	fmt.Fprintf(&b, "- Project: %s\n", project)
	fmt.Fprintf(&b, "- Spec: %s\n", specNumber)
	fmt.Fprintf(&b, "- Created: %s\n", t.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Synced: %s\n", time.Now().UTC().Format(time.RFC3339))
	b.WriteString("- Source: Bug Reporter Widget\n")
	fmt.Fprintf(&b, "- Screenshots: %d image(s)\n", len(t.Screenshots))

	return b.String()
}

func screenshotsSection(t *domain.Task) string {
	if len(t.Screenshots) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Screenshots\n")
	for _, s := range t.Screenshots {
		fmt.Fprintf(&b, "![Screenshot %d](./screenshots/screenshot-%d.png)\n", s.Index+1, s.Index)
	}
	b.WriteString("\n> Screenshots are available in this spec's `screenshots/` folder.\n\n")
	return b.String()
}

func consoleLogsSection(t *domain.Task) string {
	if len(t.ConsoleLogs) == 0 {
		return ""
	}

	var errorLogs, warnLogs []domain.ConsoleLog
	for _, l := range t.ConsoleLogs {
		switch {
		case l.IsError():
			errorLogs = append(errorLogs, l)
		case l.Type == "warn":
			warnLogs = append(warnLogs, l)
		}
	}
	if len(errorLogs) == 0 && len(warnLogs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Console logs (captured automatically)\n\n")
	b.WriteString("> These logs were captured at the moment the bug was reported.\n\n")

	if len(errorLogs) > 0 {
		fmt.Fprintf(&b, "### Errors (%d)\n```\n", len(errorLogs))
		for i, l := range errorLogs {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "[%s] %s\n%s", l.Type, l.Timestamp, l.Message)
			if l.Stack != "" {
				fmt.Fprintf(&b, "\n%s", l.Stack)
			}
			b.WriteString("\n")
		}
		b.WriteString("```\n\n")
	}

	if len(warnLogs) > 0 {
		fmt.Fprintf(&b, "### Warnings (%d)\n```\n", len(warnLogs))
		for i, l := range warnLogs {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "[warn] %s\n%s\n", l.Timestamp, l.Message)
		}
		b.WriteString("```\n\n")
	}

	return b.String()
}

func pageInfoSection(t *domain.Task) string {
	if t.PageInfo == nil || t.PageInfo.URL == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Browser context\n")
	fmt.Fprintf(&b, "- **URL**: %s\n", t.PageInfo.URL)
	fmt.Fprintf(&b, "- **User Agent**: %s\n", orDefault(t.PageInfo.UserAgent, "not available"))
	fmt.Fprintf(&b, "- **Timestamp**: %s\n\n", orDefault(t.PageInfo.Timestamp, "not available"))
	return b.String()
}

func renderSteps(steps []string) string {
	if len(steps) == 0 {
		return "Not specified"
	}
	lines := make([]string, len(steps))
	for i, s := range steps {
		lines[i] = fmt.Sprintf("%d. %s", i+1, s)
	}
	return strings.Join(lines, "\n")
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

package triage

import (
	"fmt"
	"strings"

	"supportflow/internal/config"
)

// systemPrompt builds the triage system directive for one conversation turn.
// The question cap is enforced in the prompt itself: the escalation appended
// for asked >= max leaves the model no room to keep asking.
func systemPrompt(project config.Project, asked, max int) string {
	var b strings.Builder

	name := project.Name
	if name == "" {
		name = "the application"
	}

	fmt.Fprintf(&b, `You are a friendly and efficient technical support assistant for %s. Your job is to understand precisely the bugs users report.

PROCESS:
1. The user describes a problem
2. You ask AT MOST %d clarifying questions (a single one if possible!)
3. Once the bug is clear, you produce a structured report

STRICT RULES:
- Be concise and friendly
- AT MOST %d clarifying questions, no more!
- Count your questions: after %d questions you MUST produce the report
- If the user attaches a screenshot, analyze it carefully
- If the bug is already clear from the first message, do NOT ask any questions

ONCE YOU HAVE ENOUGH INFORMATION (or after %d questions at most), reply with this JSON (and ONLY this JSON):
{
  "ready": true,
  "title": "Short bug title",
  "description": "Detailed description",
  "steps": ["Step 1", "Step 2"],
  "priority": "high|medium|low",
  "category": "crash|ui|performance|feature|other",
  "component": "Probable component`, name, max, max, max, max)

	if len(project.Components) > 0 {
		fmt.Fprintf(&b, " (e.g. %s)", strings.Join(project.Components, ", "))
	}

	b.WriteString(`"
}

OTHERWISE, reply with plain text to ask your question (ONE at a time).`)

	switch {
	case asked >= max:
		fmt.Fprintf(&b, "\n\nWARNING: You have already asked %d questions. You MUST now produce the final JSON report.", asked)
	case asked == max-1:
		fmt.Fprintf(&b, "\n\nNote: You have already asked %d question(s). You may ask ONE last question if truly necessary, otherwise produce the report.", asked)
	}

	return b.String()
}

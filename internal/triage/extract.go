package triage

import (
	"encoding/json"
	"regexp"

	"supportflow/internal/domain"
)

// readyMarker matches a JSON object embedded in free-form model text that
// carries the readiness marker.
var readyMarker = regexp.MustCompile(`\{[\s\S]*"ready"\s*:\s*true[\s\S]*\}`)

// ExtractReport looks for a final bug report embedded in model output.
// It returns ok=false both when no readiness marker is present and when the
// marked JSON fails to parse: a malformed report fails open and is treated as
// an ordinary conversational utterance, so the user never sees a parse error.
func ExtractReport(text string) (*domain.BugReport, bool) {
	match := readyMarker.FindString(text)
	if match == "" {
		return nil, false
	}

	var report domain.BugReport
	if err := json.Unmarshal([]byte(match), &report); err != nil {
		return nil, false
	}
	if !report.Ready {
		return nil, false
	}
	return &report, true
}

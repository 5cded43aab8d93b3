package domain

// Priority is the user-facing severity of a bug report.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Category classifies a bug report.
type Category string

const (
	CategoryCrash       Category = "crash"
	CategoryUI          Category = "ui"
	CategoryPerformance Category = "performance"
	CategoryFeature     Category = "feature"
	CategoryOther       Category = "other"
)

// BugReport is the structured result of a triage conversation. It is produced
// exactly once per conversation, when the model emits the readiness marker.
type BugReport struct {
	Ready       bool     `json:"ready"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
	Priority    Priority `json:"priority"`
	Category    Category `json:"category"`
	Component   string   `json:"component,omitempty"`
}

// Confidence grades an analysis result.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Analysis is a best-effort code-location hypothesis for a report. Absent or
// low-confidence values are valid terminal states, never errors.
type Analysis struct {
	Identified    bool       `json:"identified"`
	Confidence    Confidence `json:"confidence"`
	ProbableFile  string     `json:"probable_file,omitempty"`
	ProbableCause string     `json:"probable_cause"`
	Suggestion    string     `json:"suggestion"`
}

// FallbackAnalysis is the fixed value used when automatic analysis is
// unavailable for any reason. Analysis failures never block task creation.
func FallbackAnalysis() Analysis {
	return Analysis{
		Identified:    false,
		Confidence:    ConfidenceLow,
		ProbableCause: "automatic analysis unavailable",
		Suggestion:    "analyze manually",
	}
}

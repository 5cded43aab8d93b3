package domain

// Turn roles. The assistant-turn count in a history is the authoritative
// clarifying-question count for the triage cap.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one exchange in a triage conversation. Conversation state is owned
// by the caller for the lifetime of a browser session and must be echoed back
// on every call; the server never persists it.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QuestionCount returns the number of clarifying questions already asked,
// i.e. the number of assistant turns in the history.
func QuestionCount(history []Turn) int {
	n := 0
	for _, t := range history {
		if t.Role == RoleAssistant {
			n++
		}
	}
	return n
}

// Package turn defines the conversational turn type shared by the store,
// the compaction engine, and the providers.
package turn

import "strings"

// Role identifies the author of a turn.
type Role string

// Role constants for conversation turns. RoleSummary marks a turn whose
// text was synthesized by compaction; it is the only role excluded when
// building summarization input.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSummary   Role = "summary"
)

// Label returns the human-readable role label used when rendering a turn
// into summarization input.
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	case RoleSummary:
		return "Summary"
	default:
		return string(r)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSummary:
		return true
	}
	return false
}

// Turn is one immutable unit of conversation: a role and its text.
// Turns are never edited in place; they are appended and removed whole.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// User returns a user turn with the given text.
func User(text string) Turn { return Turn{Role: RoleUser, Text: text} }

// Assistant returns an assistant turn with the given text.
func Assistant(text string) Turn { return Turn{Role: RoleAssistant, Text: text} }

// Summary returns a summary turn with the given text.
func Summary(text string) Turn { return Turn{Role: RoleSummary, Text: text} }

// Render formats turns as "<Label>: <text>" lines joined by newlines,
// preserving order. This is the wire format handed to the summarizer.
func Render(turns []Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.Role.Label())
		b.WriteString(": ")
		b.WriteString(t.Text)
	}
	return b.String()
}

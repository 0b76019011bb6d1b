package compactor

import "fmt"

// Result describes what a compaction attempt did. Counts and token figures
// are diagnostic; TokensSaved may be negative when the summary turned out
// longer than the turns it replaced; this is reported, not corrected.
type Result struct {
	ConversationID    string `json:"conversation_id"`
	Compacted         bool   `json:"compacted"`
	MessagesCompacted int    `json:"messages_compacted,omitempty"`
	MessagesBefore    int    `json:"messages_before"`
	MessagesAfter     int    `json:"messages_after"`
	TokensBefore      int    `json:"tokens_before"`
	TokensAfter       int    `json:"tokens_after"`
	TokensSaved       int    `json:"tokens_saved"`

	// MinimumRequired is set when a manual compaction was refused because
	// the conversation had fewer turns than messages_to_compact.
	MinimumRequired int `json:"minimum_required,omitempty"`
}

// String renders the result as an operator-facing diagnostic line.
func (r Result) String() string {
	if r.Compacted {
		return fmt.Sprintf("Compacted %d messages into summary. Messages: %d -> %d, Tokens: %d -> %d (saved %d tokens)",
			r.MessagesCompacted, r.MessagesBefore, r.MessagesAfter, r.TokensBefore, r.TokensAfter, r.TokensSaved)
	}
	if r.MinimumRequired > 0 {
		return fmt.Sprintf("Not enough messages to compact. Current: %d, minimum: %d",
			r.MessagesBefore, r.MinimumRequired)
	}
	return fmt.Sprintf("No compaction needed. Current: %d messages", r.MessagesBefore)
}

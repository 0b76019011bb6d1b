// Package store provides append-only per-conversation turn storage with an
// in-memory implementation. A SQLite-backed implementation lives in
// modules/store/sqlite.
package store

import "github.com/sednafx/memwell/pkg/turn"

// TurnStore manages ordered per-conversation turn sequences.
// Implementations must be safe for concurrent use: each individual
// operation is linearizable even without any caller-side locking.
type TurnStore interface {
	// Append adds a turn at the end of the conversation's sequence.
	// A conversation is created implicitly on first append. If the store
	// was constructed with a maximum length, the oldest turns are dropped
	// from the front until the bound is respected.
	Append(conversationID string, t turn.Turn) error

	// All returns the conversation's turns in chronological order.
	// Returns an empty slice for a conversation that was never touched.
	All(conversationID string) ([]turn.Turn, error)

	// Clear empties the conversation's turn sequence. Idempotent; the
	// identifier remains available for reuse.
	Clear(conversationID string) error

	// Len returns the number of turns stored for the conversation.
	Len(conversationID string) (int, error)

	// Conversations returns the identifiers of all conversations that
	// currently hold at least one turn.
	Conversations() ([]string, error)
}

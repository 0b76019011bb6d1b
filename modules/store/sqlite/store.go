package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sednafx/memwell/internal/store"
	"github.com/sednafx/memwell/pkg/turn"
)

// turnStore implements store.TurnStore over a SQLite database.
type turnStore struct {
	db          *sql.DB
	maxMessages int
}

// Compile-time interface check.
var _ store.TurnStore = (*turnStore)(nil)

// Append adds a turn at the end of the conversation, evicting from the
// front when the configured bound is exceeded. Insert and eviction run in
// one transaction so concurrent readers never observe an over-length
// conversation.
func (s *turnStore) Append(conversationID string, t turn.Turn) error {
	ctx := context.TODO()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin append tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO turns (conversation_id, seq, role, text)
		VALUES (?, COALESCE((SELECT MAX(seq) FROM turns WHERE conversation_id = ?), 0) + 1, ?, ?)`,
		conversationID, conversationID, string(t.Role), t.Text,
	); err != nil {
		return fmt.Errorf("sqlite: append turn: %w", err)
	}

	if s.maxMessages > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM turns
			WHERE conversation_id = ?
			  AND seq <= (SELECT MAX(seq) FROM turns WHERE conversation_id = ?) - ?`,
			conversationID, conversationID, s.maxMessages,
		); err != nil {
			return fmt.Errorf("sqlite: evict turns: %w", err)
		}
	}

	return tx.Commit()
}

// All returns the conversation's turns in chronological order.
func (s *turnStore) All(conversationID string) ([]turn.Turn, error) {
	rows, err := s.db.QueryContext(context.TODO(), `
		SELECT role, text
		FROM turns
		WHERE conversation_id = ?
		ORDER BY seq ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get all: %w", err)
	}
	defer func() { _ = rows.Close() }()

	turns := []turn.Turn{}
	for rows.Next() {
		var role, text string
		if err := rows.Scan(&role, &text); err != nil {
			return nil, fmt.Errorf("sqlite: scan turn: %w", err)
		}
		turns = append(turns, turn.Turn{Role: turn.Role(role), Text: text})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: get all rows: %w", err)
	}

	return turns, nil
}

// Clear removes all turns for the conversation.
func (s *turnStore) Clear(conversationID string) error {
	if _, err := s.db.ExecContext(context.TODO(),
		"DELETE FROM turns WHERE conversation_id = ?", conversationID,
	); err != nil {
		return fmt.Errorf("sqlite: clear conversation: %w", err)
	}
	return nil
}

// Len returns the number of turns stored for the conversation.
func (s *turnStore) Len(conversationID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(context.TODO(),
		"SELECT COUNT(*) FROM turns WHERE conversation_id = ?", conversationID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: count turns: %w", err)
	}
	return count, nil
}

// Conversations returns the identifiers of all non-empty conversations.
func (s *turnStore) Conversations() ([]string, error) {
	rows, err := s.db.QueryContext(context.TODO(),
		"SELECT DISTINCT conversation_id FROM turns ORDER BY conversation_id",
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list conversation rows: %w", err)
	}

	return ids, nil
}

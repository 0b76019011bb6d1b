package store

import (
	"sync"

	"github.com/sednafx/memwell/pkg/turn"
)

// MemoryStore is a thread-safe, in-memory TurnStore.
type MemoryStore struct {
	mu            sync.RWMutex
	maxMessages   int
	conversations map[string][]turn.Turn
}

// NewMemoryStore creates an empty store. maxMessages bounds each
// conversation's length; when an append would exceed it, turns are dropped
// from the front. A maxMessages of 0 means unbounded.
func NewMemoryStore(maxMessages int) *MemoryStore {
	return &MemoryStore{
		maxMessages:   maxMessages,
		conversations: make(map[string][]turn.Turn),
	}
}

// Compile-time interface check.
var _ TurnStore = (*MemoryStore)(nil)

// Append adds a turn at the end of the conversation, evicting from the
// front if the configured bound is exceeded.
func (s *MemoryStore) Append(conversationID string, t turn.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.conversations[conversationID], t)
	if s.maxMessages > 0 && len(turns) > s.maxMessages {
		drop := len(turns) - s.maxMessages
		turns = append(turns[:0:0], turns[drop:]...)
	}
	s.conversations[conversationID] = turns
	return nil
}

// All returns a copy of the conversation's turns in chronological order.
func (s *MemoryStore) All(conversationID string) ([]turn.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.conversations[conversationID]
	result := make([]turn.Turn, len(turns))
	copy(result, turns)
	return result, nil
}

// Clear removes all turns for the conversation.
func (s *MemoryStore) Clear(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, conversationID)
	return nil
}

// Len returns the number of turns stored for the conversation.
func (s *MemoryStore) Len(conversationID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations[conversationID]), nil
}

// Conversations returns the identifiers of all non-empty conversations.
func (s *MemoryStore) Conversations() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.conversations))
	for id, turns := range s.conversations {
		if len(turns) > 0 {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

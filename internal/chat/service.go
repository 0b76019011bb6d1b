// Package chat implements the request interception layer: every inbound
// message runs the compaction check, is appended to the conversation store,
// and the resulting history is forwarded to the model.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sednafx/memwell/internal/compactor"
	"github.com/sednafx/memwell/internal/provider"
	"github.com/sednafx/memwell/internal/store"
	"github.com/sednafx/memwell/internal/tokens"
	"github.com/sednafx/memwell/pkg/turn"
)

// DefaultConversationID is used when a caller does not identify a conversation.
const DefaultConversationID = "default"

// Service wires the turn store, the compaction engine, and the chat
// provider into one user-facing exchange. Requests for the same
// conversation are serialized for the full check-compact-append-complete
// cycle; distinct conversations proceed concurrently.
type Service struct {
	store     store.TurnStore
	engine    *compactor.Engine
	provider  provider.Provider
	estimator tokens.Estimator
	logger    *slog.Logger
	locks     *conversationLocks
}

// NewService creates a chat service. A nil engine disables compaction: the
// store's own window eviction is then the only bound (plain window memory).
func NewService(st store.TurnStore, engine *compactor.Engine, p provider.Provider, estimator tokens.Estimator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     st,
		engine:    engine,
		provider:  p,
		estimator: estimator,
		logger:    logger,
		locks:     newConversationLocks(),
	}
}

// resolveID falls back to the default conversation identifier.
func resolveID(conversationID string) string {
	if conversationID == "" {
		return DefaultConversationID
	}
	return conversationID
}

// Respond processes one user exchange: compaction check, user turn append,
// history read, model call, assistant turn append. The conversation lock is
// held across the model call; this is an accepted latency cost. A
// compaction racing a concurrent append would silently lose history.
func (s *Service) Respond(ctx context.Context, conversationID, message string) (string, error) {
	id := resolveID(conversationID)
	unlock := s.locks.lock(id)
	defer unlock()

	if s.engine != nil {
		if _, err := s.engine.CheckAndCompact(ctx, id); err != nil {
			return "", err
		}
	}

	if message != "" {
		s.logger.Debug("appending user turn", "conversation", id)
		if err := s.store.Append(id, turn.User(message)); err != nil {
			return "", fmt.Errorf("chat: appending user turn: %w", err)
		}
	}

	history, err := s.store.All(id)
	if err != nil {
		return "", fmt.Errorf("chat: reading history: %w", err)
	}
	s.logger.Debug("forwarding history to model",
		"conversation", id,
		"messages", len(history),
		"tokens", tokens.EstimateTurns(s.estimator, history))

	resp, err := s.provider.Complete(ctx, provider.CompletionRequest{Messages: history})
	if err != nil {
		return "", err
	}

	if err := s.store.Append(id, turn.Assistant(resp.Content)); err != nil {
		return "", fmt.Errorf("chat: appending assistant turn: %w", err)
	}
	return resp.Content, nil
}

// Compact manually triggers compaction under the conversation lock.
func (s *Service) Compact(ctx context.Context, conversationID string) (compactor.Result, error) {
	id := resolveID(conversationID)
	unlock := s.locks.lock(id)
	defer unlock()

	if s.engine == nil {
		return compactor.Result{ConversationID: id}, fmt.Errorf("chat: compaction is not enabled for this memory")
	}
	return s.engine.Compact(ctx, id)
}

// CheckAndCompact runs the automatic threshold check under the conversation
// lock. Used by the maintenance sweep.
func (s *Service) CheckAndCompact(ctx context.Context, conversationID string) (compactor.Result, error) {
	id := resolveID(conversationID)
	unlock := s.locks.lock(id)
	defer unlock()

	if s.engine == nil {
		return compactor.Result{ConversationID: id}, nil
	}
	return s.engine.CheckAndCompact(ctx, id)
}

// Store exposes the underlying turn store (read-only use: sweeps, status).
func (s *Service) Store() store.TurnStore {
	return s.store
}

// Conversations lists every conversation identifier with stored history.
func (s *Service) Conversations() ([]string, error) {
	return s.store.Conversations()
}

// ClearResult reports what a Clear removed.
type ClearResult struct {
	ConversationID  string `json:"conversation_id"`
	MessagesRemoved int    `json:"messages_removed"`
	TokensRemoved   int    `json:"tokens_removed"`
}

// String renders the result as an operator-facing confirmation line.
func (r ClearResult) String() string {
	return fmt.Sprintf("Cleared conversation '%s': removed %d messages (%d tokens)",
		r.ConversationID, r.MessagesRemoved, r.TokensRemoved)
}

// Clear wipes the conversation's history under the conversation lock and
// reports what was removed. Idempotent; the identifier stays usable.
func (s *Service) Clear(_ context.Context, conversationID string) (ClearResult, error) {
	id := resolveID(conversationID)
	unlock := s.locks.lock(id)
	defer unlock()

	history, err := s.store.All(id)
	if err != nil {
		return ClearResult{}, fmt.Errorf("chat: reading history: %w", err)
	}
	result := ClearResult{
		ConversationID:  id,
		MessagesRemoved: len(history),
		TokensRemoved:   tokens.EstimateTurns(s.estimator, history),
	}

	if err := s.store.Clear(id); err != nil {
		return ClearResult{}, fmt.Errorf("chat: clearing history: %w", err)
	}

	s.logger.Debug("cleared conversation",
		"conversation", id,
		"messages", result.MessagesRemoved,
		"tokens", result.TokensRemoved)
	return result, nil
}

// Package compactor implements the conversation compaction policy: when a
// conversation's turn count crosses a threshold, the oldest turns are
// replaced by a single summary turn synthesized by an external summarizer.
package compactor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sednafx/memwell/internal/store"
	"github.com/sednafx/memwell/internal/tokens"
	"github.com/sednafx/memwell/pkg/turn"
)

// SummaryPrefix is prepended to every summary turn's text.
const SummaryPrefix = "Summary of previous conversation: "

// ErrCompactionFailed indicates that compaction could not produce a summary.
// The store is left unmutated when this is returned.
var ErrCompactionFailed = errors.New("compactor: compaction failed")

// Summarizer produces a condensed summary of rendered conversation text.
// The concrete implementation typically calls an LLM provider.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Config is the compaction policy triple, validated once at construction.
type Config struct {
	// MaxMessages is the store's own hard bound per conversation. It is a
	// coarser safety valve and must leave room for compaction to run first.
	MaxMessages int `yaml:"max_messages"`

	// CompactThreshold is the turn count at which automatic compaction
	// triggers before a new user turn is processed.
	CompactThreshold int `yaml:"compact_threshold"`

	// MessagesToCompact is the number of oldest turns replaced by one
	// summary turn.
	MessagesToCompact int `yaml:"messages_to_compact"`
}

// Validate enforces the configuration invariants. A violation is a
// construction-time error: the engine refuses to exist, there is no
// per-call fallback.
func (c Config) Validate() error {
	if c.CompactThreshold >= c.MaxMessages {
		return fmt.Errorf("compactor: compact_threshold (%d) must be less than max_messages (%d)",
			c.CompactThreshold, c.MaxMessages)
	}
	if c.MessagesToCompact >= c.CompactThreshold {
		return fmt.Errorf("compactor: messages_to_compact (%d) must be less than compact_threshold (%d)",
			c.MessagesToCompact, c.CompactThreshold)
	}
	if c.MessagesToCompact < 2 {
		return errors.New("compactor: messages_to_compact must be at least 2")
	}
	return nil
}

// Engine applies the compaction policy to a TurnStore. It is stateless
// across calls apart from its configuration.
//
// Engine itself does not serialize callers: the interception layer holds a
// per-conversation lock around the whole check/append/read cycle. Out-of-band
// callers get the store's own linearizability but not atomicity across the
// read-summarize-rewrite sequence.
type Engine struct {
	store      store.TurnStore
	summarizer Summarizer
	estimator  tokens.Estimator
	config     Config
	logger     *slog.Logger
}

// NewEngine creates an Engine, failing if the configuration is invalid.
func NewEngine(st store.TurnStore, summarizer Summarizer, estimator tokens.Estimator, cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:      st,
		summarizer: summarizer,
		estimator:  estimator,
		config:     cfg,
		logger:     logger,
	}, nil
}

// Config returns the engine's configuration triple.
func (e *Engine) Config() Config {
	return e.config
}

// CheckAndCompact compacts the conversation if its turn count has reached
// the compaction threshold, and is a no-op otherwise. It is called before
// every new user turn is processed.
func (e *Engine) CheckAndCompact(ctx context.Context, conversationID string) (Result, error) {
	turns, err := e.store.All(conversationID)
	if err != nil {
		return Result{}, fmt.Errorf("compactor: reading history: %w", err)
	}

	e.logger.Debug("checking compaction threshold",
		"conversation", conversationID,
		"messages", len(turns),
		"threshold", e.config.CompactThreshold)

	if len(turns) < e.config.CompactThreshold {
		return Result{ConversationID: conversationID, MessagesBefore: len(turns), MessagesAfter: len(turns)}, nil
	}
	return e.compact(ctx, conversationID, turns)
}

// Compact unconditionally attempts compaction for operator-triggered use.
// If fewer than MessagesToCompact turns exist it reports the shortfall
// without mutating the store.
func (e *Engine) Compact(ctx context.Context, conversationID string) (Result, error) {
	turns, err := e.store.All(conversationID)
	if err != nil {
		return Result{}, fmt.Errorf("compactor: reading history: %w", err)
	}

	if len(turns) < e.config.MessagesToCompact {
		e.logger.Debug("not enough messages to compact",
			"conversation", conversationID,
			"messages", len(turns),
			"minimum", e.config.MessagesToCompact)
		return Result{
			ConversationID:  conversationID,
			MessagesBefore:  len(turns),
			MessagesAfter:   len(turns),
			MinimumRequired: e.config.MessagesToCompact,
		}, nil
	}
	return e.compact(ctx, conversationID, turns)
}

// compact replaces the oldest MessagesToCompact turns with one summary turn.
//
// The summarizer is invoked before the store is touched: a summarization
// failure must leave the conversation exactly as it was.
func (e *Engine) compact(ctx context.Context, conversationID string, turns []turn.Turn) (Result, error) {
	cut := e.config.MessagesToCompact
	prefix := turns[:cut]
	suffix := turns[cut:]

	tokensBefore := tokens.EstimateTurns(e.estimator, turns)
	e.logger.Debug("starting compaction",
		"conversation", conversationID,
		"messages", len(turns),
		"tokens", tokensBefore,
		"compacting", cut)

	summaryText, err := e.summarizePrefix(ctx, prefix)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrCompactionFailed, err)
	}

	if err := e.store.Clear(conversationID); err != nil {
		return Result{}, fmt.Errorf("compactor: clearing history: %w", err)
	}
	if err := e.store.Append(conversationID, turn.Summary(summaryText)); err != nil {
		return Result{}, fmt.Errorf("compactor: appending summary: %w", err)
	}
	for _, tn := range suffix {
		if err := e.store.Append(conversationID, tn); err != nil {
			return Result{}, fmt.Errorf("compactor: restoring history: %w", err)
		}
	}

	after, err := e.store.All(conversationID)
	if err != nil {
		return Result{}, fmt.Errorf("compactor: reading compacted history: %w", err)
	}
	tokensAfter := tokens.EstimateTurns(e.estimator, after)

	result := Result{
		ConversationID:    conversationID,
		Compacted:         true,
		MessagesCompacted: cut,
		MessagesBefore:    len(turns),
		MessagesAfter:     len(after),
		TokensBefore:      tokensBefore,
		TokensAfter:       tokensAfter,
		TokensSaved:       tokensBefore - tokensAfter,
	}

	e.logger.Debug("compaction complete",
		"conversation", conversationID,
		"messages_before", result.MessagesBefore,
		"messages_after", result.MessagesAfter,
		"tokens_before", result.TokensBefore,
		"tokens_after", result.TokensAfter,
		"tokens_saved", result.TokensSaved)

	return result, nil
}

// summarizePrefix renders the prefix and obtains its summary. Turns that
// are already summaries are excluded from the rendering so summaries never
// compound into meta-summaries. If nothing is left to render (the whole
// prefix was summary turns), the newest of those summaries is reused
// verbatim instead of calling the summarizer with empty input.
func (e *Engine) summarizePrefix(ctx context.Context, prefix []turn.Turn) (string, error) {
	eligible := make([]turn.Turn, 0, len(prefix))
	for _, tn := range prefix {
		if tn.Role == turn.RoleSummary {
			continue
		}
		eligible = append(eligible, tn)
	}

	rendered := turn.Render(eligible)
	if rendered == "" {
		for i := len(prefix) - 1; i >= 0; i-- {
			if prefix[i].Role == turn.RoleSummary {
				e.logger.Debug("prefix contains only summaries, reusing newest")
				return prefix[i].Text, nil
			}
		}
		return "", nil
	}

	summary, err := e.summarizer.Summarize(ctx, rendered)
	if err != nil {
		return "", err
	}
	return SummaryPrefix + summary, nil
}

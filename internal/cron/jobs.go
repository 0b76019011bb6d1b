package cron

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sednafx/memwell/internal/compactor"
)

// ConversationMemory is the subset of the chat service needed by the sweep
// job. Defined here so tests can substitute a fake without standing up a
// model provider.
type ConversationMemory interface {
	Conversations() ([]string, error)
	CheckAndCompact(ctx context.Context, conversationID string) (compactor.Result, error)
}

// CompactionSweepJob walks every known conversation and compacts the ones
// at or over the threshold. Conversations under threshold are left alone,
// so the sweep is cheap when nothing has grown.
type CompactionSweepJob struct {
	Memory       ConversationMemory
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/5 * * * *"
}

var _ Job = (*CompactionSweepJob)(nil)

// Name implements Job.
func (j *CompactionSweepJob) Name() string { return "compaction_sweep" }

// Schedule implements Job.
func (j *CompactionSweepJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/5 * * * *"
}

// Run compacts every over-threshold conversation. A failure on one
// conversation does not stop the sweep; the first error is reported after
// the full pass.
func (j *CompactionSweepJob) Run(ctx context.Context) error {
	ids, err := j.Memory.Conversations()
	if err != nil {
		return fmt.Errorf("cron: listing conversations: %w", err)
	}

	var compacted int
	var firstErr error
	for _, id := range ids {
		if ctx.Err() != nil {
			return fmt.Errorf("cron: compaction sweep cancelled: %w", ctx.Err())
		}

		res, err := j.Memory.CheckAndCompact(ctx, id)
		if err != nil {
			j.Logger.Error("cron: sweep compaction failed", "conversation", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if res.Compacted {
			compacted++
			j.Logger.Info("cron: swept conversation",
				"conversation", id,
				"messages_compacted", res.MessagesCompacted,
				"tokens_saved", res.TokensSaved,
			)
		}
	}

	if compacted > 0 {
		j.Logger.Info("cron: compaction sweep done", "conversations", len(ids), "compacted", compacted)
	}
	return firstErr
}

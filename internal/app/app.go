// Package app assembles the memwell application from configuration: store,
// estimator, providers, compaction engine, chat services, gateway, and the
// maintenance scheduler.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/sednafx/memwell/internal/chat"
	"github.com/sednafx/memwell/internal/compactor"
	"github.com/sednafx/memwell/internal/config"
	"github.com/sednafx/memwell/internal/cron"
	"github.com/sednafx/memwell/internal/gateway"
	"github.com/sednafx/memwell/internal/provider"
	"github.com/sednafx/memwell/internal/store"
	"github.com/sednafx/memwell/internal/tokens"
	"github.com/sednafx/memwell/modules/provider/openai"
	sqlitestore "github.com/sednafx/memwell/modules/store/sqlite"
)

// App holds the assembled components and drives their lifecycle.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *sql.DB // nil for the in-memory store
	gateway   *gateway.Gateway
	scheduler *cron.Scheduler
}

// New validates the configuration and wires every component. Nothing is
// started; call Run.
func New(cfg *config.Config) (*App, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	estimator := buildEstimator(cfg.Tokens, cfg.Provider.Model)

	compactingStore, db, err := buildStore(cfg.Memory)
	if err != nil {
		return nil, err
	}

	chatProvider, err := openai.New(cfg.Provider, logger)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	// The summarizer model defaults to the chat provider; a separate,
	// cheaper model is configured under the summarizer section.
	var summarizerProvider provider.Provider = chatProvider
	if cfg.Summarizer != nil {
		summarizerProvider, err = openai.New(*cfg.Summarizer, logger)
		if err != nil {
			closeDB(db)
			return nil, fmt.Errorf("app: building summarizer provider: %w", err)
		}
	}

	engine, err := compactor.NewEngine(
		compactingStore,
		&chat.ProviderSummarizer{Provider: summarizerProvider},
		estimator,
		cfg.Memory.Compaction,
		logger,
	)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	compacting := chat.NewService(compactingStore, engine, chatProvider, estimator, logger)

	// The comparison surface gets its own store: a plain window bounded by
	// max_messages, with no compaction engine.
	var window *chat.Service
	if cfg.Memory.WindowEnabled {
		windowStore := store.NewMemoryStore(cfg.Memory.Compaction.MaxMessages)
		window = chat.NewService(windowStore, nil, chatProvider, estimator, logger)
	}

	gw := gateway.New(cfg.Server, compacting, window, logger)

	var scheduler *cron.Scheduler
	if cfg.Maintenance.SweepEnabled {
		scheduler = cron.NewScheduler(logger)
		job := &cron.CompactionSweepJob{
			Memory:       compacting,
			Logger:       logger,
			ScheduleExpr: cfg.Maintenance.SweepSchedule,
		}
		if err := scheduler.RegisterJob(job); err != nil {
			closeDB(db)
			return nil, err
		}
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		gateway:   gw,
		scheduler: scheduler,
	}, nil
}

// buildLogger constructs the slog logger from the log section.
func buildLogger(cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.Level {
	case "", "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("app: unknown log level %q", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch cfg.Format {
	case "", "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return nil, fmt.Errorf("app: unknown log format %q", cfg.Format)
	}
	return slog.New(handler), nil
}

// buildEstimator selects the token estimator.
func buildEstimator(cfg config.TokensConfig, model string) tokens.Estimator {
	if cfg.Estimator == "tiktoken" {
		return tokens.NewTiktokenEstimator(model)
	}
	return tokens.NewCharEstimator(cfg.CharsPerToken)
}

// buildStore opens the configured turn store. The returned *sql.DB is nil
// for the in-memory driver.
func buildStore(cfg config.MemoryConfig) (store.TurnStore, *sql.DB, error) {
	if cfg.Store.Driver == "sqlite" {
		return sqlitestore.Open(cfg.Store.Path, cfg.Compaction.MaxMessages)
	}
	return store.NewMemoryStore(cfg.Compaction.MaxMessages), nil, nil
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

// Stop shuts components down in reverse start order.
func (a *App) Stop(ctx context.Context) {
	if a.scheduler != nil {
		if err := a.scheduler.Stop(ctx); err != nil {
			a.logger.Error("scheduler stop failed", "error", err)
		}
	}
	if err := a.gateway.Stop(ctx); err != nil {
		a.logger.Error("gateway stop failed", "error", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("closing store failed", "error", err)
		}
	}
}

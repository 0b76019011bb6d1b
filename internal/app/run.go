package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Run starts the gateway and the maintenance scheduler, then blocks until
// SIGINT or SIGTERM.
func (a *App) Run() error {
	if err := a.gateway.Start(); err != nil {
		return err
	}
	if a.scheduler != nil {
		if err := a.scheduler.Start(); err != nil {
			a.Stop(context.Background())
			return err
		}
	}

	a.logger.Info("memwell started",
		"bind", a.cfg.Server.Bind,
		"model", a.cfg.Provider.Model,
		"compact_threshold", a.cfg.Memory.Compaction.CompactThreshold,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	a.logger.Info("shutdown signal received", "signal", sig.String())

	a.Stop(context.Background())
	a.logger.Info("shutdown complete")
	return nil
}

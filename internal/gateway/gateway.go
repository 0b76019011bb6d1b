// Package gateway exposes the chat, compaction, and diagnostics endpoints
// over HTTP. It binds to loopback by default and is a leaf component:
// nothing imports it.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sednafx/memwell/internal/chat"
)

// Gateway is the HTTP host around the chat services.
type Gateway struct {
	config    Config
	logger    *slog.Logger
	compacting *chat.Service
	window     *chat.Service
	metrics   *Metrics
	server    *http.Server
	startedAt time.Time
}

// New creates a Gateway serving the compacting memory service and,
// optionally, a plain window-memory service for comparison. window may be
// nil, in which case /chat is not mounted.
func New(cfg Config, compacting, window *chat.Service, logger *slog.Logger) *Gateway {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		config:     cfg,
		logger:     logger.With("component", "gateway"),
		compacting: compacting,
		window:     window,
		metrics:    &Metrics{},
	}
}

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public, no auth required.
	r.Get("/health", g.handleHealth())
	r.Get("/status", g.handleStatus())

	if g.window != nil {
		r.Get("/chat", g.handleChat(g.window, false))
	}
	r.Get("/memory", g.handleChat(g.compacting, true))

	// Operator endpoints, auth applied when configured.
	r.Group(func(r chi.Router) {
		if g.config.Auth.IsConfigured() {
			r.Use(authMiddleware(g.config.Auth))
		}
		r.Get("/trigger", g.handleTrigger())
		r.Get("/clear", g.handleClear())
	})

	return r
}

// Start begins listening. The server runs in a background goroutine.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully with the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}

// Handler exposes the router for tests.
func (g *Gateway) Handler() http.Handler {
	return g.buildRouter()
}

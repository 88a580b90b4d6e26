// Package app runs the HTTP listener used by the streamable HTTP transport
// and the stdio-mode metrics side listener.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codex-k8s/aha-mcp-server/internal/http/health"
)

// Default server timeouts. Writes are unbounded because tool calls that
// retry can outlive any fixed write deadline.
const (
	defaultReadTimeout     = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Options configures the HTTP server.
type Options struct {
	// Listen is the listen address.
	Listen string
	// Routes maps paths to handlers, e.g. the MCP endpoint and /metrics.
	Routes map[string]http.Handler
	// ShutdownTimeout controls graceful shutdown duration.
	ShutdownTimeout time.Duration
}

// App controls the HTTP server lifecycle.
type App struct {
	baseCtx         context.Context
	server          *http.Server
	health          *health.Handler
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// New initializes the HTTP server with health endpoints.
func New(baseCtx context.Context, opts Options, logger *slog.Logger) (*App, error) {
	if baseCtx == nil {
		return nil, fmt.Errorf("base context is nil")
	}
	if strings.TrimSpace(opts.Listen) == "" {
		return nil, fmt.Errorf("listen address is empty")
	}

	healthHandler := health.New()
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler.Healthz)
	mux.HandleFunc("/readyz", healthHandler.Readyz)
	for path, route := range opts.Routes {
		if strings.TrimSpace(path) == "" || route == nil {
			continue
		}
		mux.Handle(path, route)
	}

	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	return &App{
		baseCtx: baseCtx,
		server: &http.Server{
			Addr:              opts.Listen,
			Handler:           mux,
			ReadHeaderTimeout: defaultReadTimeout,
			ReadTimeout:       defaultReadTimeout,
			IdleTimeout:       defaultIdleTimeout,
		},
		health:          healthHandler,
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// Handler returns the root handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until ctx ends or the server fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.health.SetReady()
		if a.logger != nil {
			a.logger.Info("http server started", "addr", a.server.Addr)
		}
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		if a.logger != nil {
			a.logger.Info("shutdown requested")
		}
		return a.shutdown()
	case err := <-errCh:
		a.health.SetNotReady()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		if a.logger != nil {
			a.logger.Error("http server error", "error", err)
		}
		return err
	}
}

func (a *App) shutdown() error {
	a.health.SetNotReady()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(a.baseCtx), a.shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

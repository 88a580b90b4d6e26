package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/aha-mcp-server/internal/aha"
	"github.com/codex-k8s/aha-mcp-server/internal/app"
	"github.com/codex-k8s/aha-mcp-server/internal/audit"
	"github.com/codex-k8s/aha-mcp-server/internal/config"
	"github.com/codex-k8s/aha-mcp-server/internal/idempotency"
	"github.com/codex-k8s/aha-mcp-server/internal/log"
	"github.com/codex-k8s/aha-mcp-server/internal/metrics"
	"github.com/codex-k8s/aha-mcp-server/internal/pipeline"
	"github.com/codex-k8s/aha-mcp-server/internal/templates"
	"github.com/codex-k8s/aha-mcp-server/internal/tools"
)

func serve(ctx context.Context, transport string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if transport = strings.ToLower(strings.TrimSpace(transport)); transport != "" {
		cfg.Transport = transport
	}

	logger := log.New(cfg.LogLevel)
	recorder := metrics.New()
	server, err := buildServer(cfg, logger, recorder)
	if err != nil {
		return err
	}
	logger.Info("aha mcp server starting",
		"version", version,
		"transport", cfg.Transport,
		"api", cfg.APIBaseURL(),
	)

	switch cfg.Transport {
	case "stdio":
		return runStdio(ctx, cfg, server, recorder, logger)
	case "http":
		return runHTTP(ctx, cfg, server, recorder, logger)
	default:
		return fmt.Errorf("unsupported transport %q", cfg.Transport)
	}
}

// buildServer wires the request pipeline, the API client and the tool layer.
func buildServer(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*mcp.Server, error) {
	bundle, err := templates.Load(cfg.Lang)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	p, err := pipeline.New(cfg.Endpoint(version),
		pipeline.WithLogger(logger),
		pipeline.WithObserver(recorder),
	)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	var cache *idempotency.Cache
	if cfg.IdempotencyTTL > 0 {
		cache = idempotency.NewCache(cfg.IdempotencyTTL, cfg.IdempotencyMaxEntries)
	}

	builder := tools.Builder{
		Name:        "aha-mcp-server",
		Version:     version,
		Logger:      logger,
		Audit:       audit.New(logger),
		Templates:   bundle,
		Cache:       cache,
		Metrics:     recorder,
		ToolTimeout: cfg.ToolTimeout,
	}
	client := aha.New(p, cfg.DefaultProduct)
	logger.Info("tool server ready",
		"tools", len(tools.Catalog()),
		"lang", bundle.Lang(),
		"default_product", client.DefaultProduct(),
		"idempotency", cache != nil,
	)
	return builder.Build(client), nil
}

func runStdio(ctx context.Context, cfg config.Config, server *mcp.Server, recorder *metrics.Recorder, logger *slog.Logger) error {
	if strings.TrimSpace(cfg.MetricsListen) != "" {
		side, err := app.New(ctx, app.Options{
			Listen:          cfg.MetricsListen,
			Routes:          map[string]http.Handler{"/metrics": recorder.Handler()},
			ShutdownTimeout: cfg.ShutdownTimeout,
		}, logger)
		if err != nil {
			return err
		}
		go func() {
			if err := side.Run(ctx); err != nil {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
	}
	return server.Run(ctx, &mcp.StdioTransport{})
}

func runHTTP(ctx context.Context, cfg config.Config, server *mcp.Server, recorder *metrics.Recorder, logger *slog.Logger) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{
		Stateless: cfg.HTTPStateless,
	})

	application, err := app.New(ctx, app.Options{
		Listen: cfg.HTTPListen,
		Routes: map[string]http.Handler{
			cfg.HTTPPath: handler,
			"/metrics":   recorder.Handler(),
		},
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	if err != nil {
		return err
	}
	return application.Run(ctx)
}

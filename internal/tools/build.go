// Package tools registers the Aha! MCP tools and runs every call through a
// shared wrapper for correlation, logging, audit, timeouts and replay.
package tools

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/aha-mcp-server/internal/aha"
	"github.com/codex-k8s/aha-mcp-server/internal/audit"
	"github.com/codex-k8s/aha-mcp-server/internal/idempotency"
	"github.com/codex-k8s/aha-mcp-server/internal/pipeline"
	"github.com/codex-k8s/aha-mcp-server/internal/protocol"
	"github.com/codex-k8s/aha-mcp-server/internal/security"
	"github.com/codex-k8s/aha-mcp-server/internal/templates"
)

const instructions = "Tools for the Aha! product management API. FEATURES are development work items; " +
	"IDEAS are customer requests and feedback. Use list_products to discover product IDs and reference prefixes."

// Observer records tool call outcomes.
type Observer interface {
	ObserveTool(tool, result string, elapsed time.Duration)
}

// Builder constructs the MCP server.
type Builder struct {
	// Name and Version identify the server implementation.
	Name    string
	Version string
	// Logger is used for structured logging.
	Logger *slog.Logger
	// Audit records tool events.
	Audit audit.Logger
	// Templates provides localized messages.
	Templates templates.Renderer
	// Cache replays mutating calls. Nil disables replay.
	Cache *idempotency.Cache
	// Metrics receives tool outcomes. Optional.
	Metrics Observer
	// ToolTimeout bounds each call. Zero disables it.
	ToolTimeout time.Duration
}

// Build creates an MCP server exposing every tool in the catalog.
func (b Builder) Build(client *aha.Client) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    b.Name,
		Version: b.Version,
	}, &mcp.ServerOptions{Instructions: instructions})

	h := handlers{client: client}
	addTool(&b, server, ToolSearchFeatures, h.searchFeatures)
	addTool(&b, server, ToolGetFeature, h.getFeature)
	addTool(&b, server, ToolCreateFeature, h.createFeature)
	addTool(&b, server, ToolUpdateFeature, h.updateFeature)
	addTool(&b, server, ToolDeleteFeature, h.deleteFeature)
	addTool(&b, server, ToolListFeaturesByRelease, h.listFeaturesByRelease)
	addTool(&b, server, ToolListFeaturesByEpic, h.listFeaturesByEpic)
	addTool(&b, server, ToolUpdateFeatureStatus, h.updateFeatureStatus)
	addTool(&b, server, ToolAddFeatureTags, h.addFeatureTags)
	addTool(&b, server, ToolUpdateFeatureScore, h.updateFeatureScore)
	addTool(&b, server, ToolListProducts, h.listProducts)
	addTool(&b, server, ToolGetRelatedIdeas, h.getRelatedIdeas)
	addTool(&b, server, ToolListReleases, h.listReleases)
	addTool(&b, server, ToolGetRelease, h.getRelease)
	addTool(&b, server, ToolListEpics, h.listEpics)
	addTool(&b, server, ToolGetEpic, h.getEpic)
	addTool(&b, server, ToolListUsers, h.listUsers)
	addTool(&b, server, ToolGetCurrentUser, h.getCurrentUser)
	return server
}

func addTool[In any](b *Builder, server *mcp.Server, name string, h func(context.Context, In) (string, error)) {
	spec := specByName(name)
	mcp.AddTool(server, spec.tool(), func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		result := b.call(ctx, spec, argumentMap(in), func(ctx context.Context) (string, error) {
			return h(ctx, in)
		})
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result.Text}},
			IsError: result.Failed(),
		}, nil, nil
	})
}

func (b *Builder) call(ctx context.Context, spec toolSpec, args map[string]any, run func(context.Context) (string, error)) protocol.ToolResult {
	started := time.Now()
	requestID, _ := args["request_id"].(string)
	requestID = strings.TrimSpace(requestID)
	correlationID := requestID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	b.log().Info("tool call", "tool", spec.name, "correlation_id", correlationID, "args", security.RedactArguments(args))
	b.record(ctx, audit.Event{Type: audit.EventToolCall, Tool: spec.name, CorrelationID: correlationID})

	cacheKey := ""
	if spec.mutating() && b.Cache != nil {
		key, err := buildCacheKey(spec.name, requestID, args)
		if err != nil {
			b.log().Warn("cache key build failed", "tool", spec.name, "error", err)
		}
		cacheKey = key
	}
	if cacheKey != "" {
		if cached, ok := b.Cache.Get(cacheKey); ok {
			cached.Status = protocol.StatusReplayed
			cached.CorrelationID = correlationID
			b.log().Info("tool cache hit", "tool", spec.name, "correlation_id", correlationID)
			b.record(ctx, audit.Event{Type: audit.EventCacheHit, Tool: spec.name, CorrelationID: correlationID})
			b.observe(spec.name, protocol.StatusReplayed, started)
			return cached
		}
	}

	ctxTool := ctx
	if b.ToolTimeout > 0 {
		var cancel context.CancelFunc
		ctxTool, cancel = context.WithTimeout(ctx, b.ToolTimeout)
		defer cancel()
	}

	text, err := run(ctxTool)
	if err != nil {
		result := b.failure(ctx, ctxTool, spec, err)
		result.CorrelationID = correlationID
		b.log().Warn("tool failed",
			"tool", spec.name,
			"correlation_id", correlationID,
			"kind", result.Kind,
			"attempts", result.Attempts,
			"error", err,
		)
		b.record(ctx, audit.Event{
			Type:          audit.EventToolError,
			Tool:          spec.name,
			CorrelationID: correlationID,
			Kind:          result.Kind,
			Attempts:      result.Attempts,
			Reason:        result.Text,
		})
		b.observe(spec.name, result.Kind, started)
		return result
	}

	result := protocol.ToolResult{
		Status:        protocol.StatusSuccess,
		Text:          text,
		CorrelationID: correlationID,
	}
	b.record(ctx, audit.Event{Type: audit.EventToolOK, Tool: spec.name, CorrelationID: correlationID})
	if cacheKey != "" {
		b.Cache.Set(cacheKey, result)
		b.log().Debug("tool result cached", "tool", spec.name, "correlation_id", correlationID, "entries", b.Cache.Len())
		b.record(ctx, audit.Event{Type: audit.EventCacheStore, Tool: spec.name, CorrelationID: correlationID})
	}
	b.observe(spec.name, protocol.StatusSuccess, started)
	return result
}

func (b *Builder) log() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

func (b *Builder) record(ctx context.Context, event audit.Event) {
	if b.Audit != nil {
		b.Audit.Record(ctx, event)
	}
}

func (b *Builder) observe(tool, result string, started time.Time) {
	if b.Metrics != nil {
		b.Metrics.ObserveTool(tool, result, time.Since(started))
	}
}

// failure renders err as a localized tool error. The text is chosen by the
// failure kind only; upstream payloads are never echoed.
func (b *Builder) failure(parent, ctxTool context.Context, spec toolSpec, err error) protocol.ToolResult {
	result := protocol.ToolResult{Status: protocol.StatusError}

	var argErr *argumentError
	switch {
	case errors.As(err, &argErr):
		result.Kind = kindInvalidArgument
		result.Text = b.render(argErr.key, messageData{Detail: argErr.detail}, argErr.Error())
		return result
	case errors.Is(err, aha.ErrInvalidArgument):
		result.Kind = kindInvalidArgument
		detail := strings.TrimPrefix(err.Error(), aha.ErrInvalidArgument.Error()+": ")
		result.Text = b.render("tool.invalid_argument", messageData{Detail: detail}, "Error: "+detail)
		return result
	case parent.Err() == nil && errors.Is(ctxTool.Err(), context.DeadlineExceeded):
		result.Kind = string(pipeline.KindNetwork)
		if failure, ok := pipeline.AsError(err); ok {
			result.Attempts = failure.Attempts
		}
		result.Text = b.render("tool.timeout", messageData{Action: spec.action, Timeout: b.ToolTimeout.String()},
			"Error "+spec.action+": timeout")
		return result
	}

	data := messageData{Action: spec.action}
	reason := ""
	if failure, ok := pipeline.AsError(err); ok {
		result.Kind = string(failure.Kind)
		result.Attempts = failure.Attempts
		reasonData := messageData{Status: failure.StatusCode, Detail: failure.Message, Attempts: failure.Attempts}
		reason = b.render("error."+string(failure.Kind), reasonData, failure.Message)
		if failure.Exhausted {
			reason += " " + b.render("error.exhausted", reasonData, "")
		}
	} else {
		result.Kind = string(pipeline.KindUnknown)
		reason = b.render("error.unknown", messageData{}, "unexpected API response")
	}
	data.Reason = strings.TrimSpace(reason)
	result.Text = b.render("tool.failed", data, "Error "+spec.action+": "+data.Reason)
	return result
}

type messageData struct {
	Action   string
	Reason   string
	Detail   string
	Status   int
	Attempts int
	Timeout  string
}

func (b *Builder) render(key string, data messageData, fallback string) string {
	if b.Templates == nil {
		return fallback
	}
	out, err := b.Templates.Render(key, data)
	if err != nil {
		b.log().Warn("template render failed", "key", key, "error", err)
		return fallback
	}
	return out
}

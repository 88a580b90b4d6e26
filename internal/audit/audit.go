package audit

import (
	"context"
	"log/slog"
)

// Audit event types.
const (
	EventToolCall   = "tool_call"
	EventToolOK     = "tool_ok"
	EventToolError  = "tool_error"
	EventCacheHit   = "cache_hit"
	EventCacheStore = "cache_store"
)

// Event represents an audit entry for a tool call.
type Event struct {
	// Type describes the event kind.
	Type string
	// Tool is the tool name.
	Tool string
	// CorrelationID links related events.
	CorrelationID string
	// Kind is the failure class, if any.
	Kind string
	// Attempts is the number of API attempts made.
	Attempts int
	// Reason provides additional context.
	Reason string
}

// Logger records audit events.
type Logger interface {
	// Record stores an audit event.
	Record(ctx context.Context, event Event)
}

// StdLogger writes audit events to slog.
type StdLogger struct {
	logger *slog.Logger
}

// New returns a StdLogger.
func New(logger *slog.Logger) *StdLogger {
	return &StdLogger{logger: logger}
}

// Record logs an audit event.
func (l *StdLogger) Record(ctx context.Context, event Event) {
	if l == nil || l.logger == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("type", event.Type),
		slog.String("tool", event.Tool),
		slog.String("correlation_id", event.CorrelationID),
	}
	if event.Kind != "" {
		attrs = append(attrs, slog.String("kind", event.Kind))
	}
	if event.Attempts > 0 {
		attrs = append(attrs, slog.Int("attempts", event.Attempts))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}
	l.logger.LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)
}

package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	workflowIDKey ctxKey = iota
	stepIDKey
	sessionIDKey
)

// correlationKeys lists the context values copied onto every record, in
// output order.
var correlationKeys = []struct {
	key  ctxKey
	attr string
}{
	{workflowIDKey, "workflow_id"},
	{stepIDKey, "step_id"},
	{sessionIDKey, "session_id"},
}

// WithWorkflowID returns a context carrying the active workflow id.
func WithWorkflowID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, workflowIDKey, id)
}

// WithStepID returns a context carrying the step being edited.
func WithStepID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, stepIDKey, id)
}

// WithSessionID returns a context carrying the editor session id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// WorkflowID extracts the workflow id from the context, or "" if absent.
func WorkflowID(ctx context.Context) string { return value(ctx, workflowIDKey) }

// StepID extracts the step id from the context, or "" if absent.
func StepID(ctx context.Context) string { return value(ctx, stepIDKey) }

// SessionID extracts the session id from the context, or "" if absent.
func SessionID(ctx context.Context) string { return value(ctx, sessionIDKey) }

func value(ctx context.Context, k ctxKey) string {
	v, _ := ctx.Value(k).(string)
	return v
}

func correlationAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, ck := range correlationKeys {
		if v := value(ctx, ck.key); v != "" {
			attrs = append(attrs, slog.String(ck.attr, v))
		}
	}
	return attrs
}

// CorrelationHandler wraps an slog.Handler and appends the correlation ids
// found in the record's context. Log with logger.InfoContext(ctx, ...) for
// the ids to appear.
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps inner.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(correlationAttrs(ctx)...)
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}

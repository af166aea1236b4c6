// Package logging carries correlation IDs through a context and injects
// them into slog records.
package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	documentIDKey ctxKey = iota
	commandKey
	elementIDKey
)

// WithDocumentID returns a context carrying the document ID.
func WithDocumentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, documentIDKey, id)
}

// WithCommand returns a context carrying the name of the command being run.
func WithCommand(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, commandKey, name)
}

// WithElementID returns a context carrying the element being worked on.
func WithElementID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, elementIDKey, id)
}

// DocumentID extracts the document ID from the context, or "" if absent.
func DocumentID(ctx context.Context) string {
	v, _ := ctx.Value(documentIDKey).(string)
	return v
}

// Command extracts the command name from the context, or "" if absent.
func Command(ctx context.Context) string {
	v, _ := ctx.Value(commandKey).(string)
	return v
}

// ElementID extracts the element ID from the context, or "" if absent.
func ElementID(ctx context.Context) string {
	v, _ := ctx.Value(elementIDKey).(string)
	return v
}

// attrs returns the non-empty correlation IDs in ctx.
func attrs(ctx context.Context) []slog.Attr {
	var out []slog.Attr
	if v := DocumentID(ctx); v != "" {
		out = append(out, slog.String("document_id", v))
	}
	if v := Command(ctx); v != "" {
		out = append(out, slog.String("command", v))
	}
	if v := ElementID(ctx); v != "" {
		out = append(out, slog.String("element_id", v))
	}
	return out
}

// LogWith returns logger enriched with the correlation IDs from ctx.
func LogWith(ctx context.Context, logger *slog.Logger) *slog.Logger {
	for _, a := range attrs(ctx) {
		logger = logger.With(a)
	}
	return logger
}

// CorrelationHandler wraps an slog.Handler and adds the correlation IDs of
// the record's context to every record.
type CorrelationHandler struct {
	inner slog.Handler
}

func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(attrs(ctx)...)
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(as []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(as)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

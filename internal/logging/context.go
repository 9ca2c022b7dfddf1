package logging

import (
	"context"
	"log/slog"

	"hotpix/internal/services"
)

// contextHandler stamps records with the session and file identifiers carried
// by the context, so pipeline code does not repeat them at every call site.
type contextHandler struct {
	inner slog.Handler
}

func newContextHandler(inner slog.Handler) slog.Handler {
	return contextHandler{inner: inner}
}

func (h contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h contextHandler) Handle(ctx context.Context, record slog.Record) error {
	if id, ok := services.SessionIDFromContext(ctx); ok {
		record.AddAttrs(slog.String(FieldSessionID, id))
	}
	if path, ok := services.FilePathFromContext(ctx); ok {
		record.AddAttrs(slog.String(FieldFile, path))
	}
	return h.inner.Handle(ctx, record)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{inner: h.inner.WithGroup(name)}
}

// Package logging carries the request-scoped logger through contexts so the
// portal's handlers and services annotate the logger the request middleware
// created instead of the process-wide default.
package logging

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// Attach returns a derived context carrying the logger. A nil context or nil
// logger leaves the chain unchanged.
func Attach(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// From extracts the logger attached to the context, or nil when none is.
func From(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}

// Or resolves the logger for an operation: the request-scoped one when
// attached, otherwise the given fallback, otherwise the process default.
func Or(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger := From(ctx); logger != nil {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}

// Package logger provides the structured logger used by the repository, the
// store adapter and the CLI.
package logger

import (
	"context"
)

// Logger is a leveled, structured logger.
// All log methods accept a message followed by key-value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a child logger that adds the key-value pairs to every entry.
	With(args ...any) Logger

	// WithContext returns a child logger tagged with the correlation ID found
	// in ctx, if any.
	WithContext(ctx context.Context) Logger
}

type correlationKey struct{}

// ContextWithCorrelationID stores a correlation ID that WithContext attaches
// to log entries as "correlation_id".
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFromContext returns the correlation ID stored in ctx.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

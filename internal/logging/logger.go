// Package logging defines the structured-logging interface used by the
// catalogs, the upload registry and the HTTP layer. The only implementation
// wraps log/slog.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Warn(ctx, "track skipped", "path", path, "error", err)
type Logger interface {
	// Debug logs diagnostic details such as skipped lines.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs recovered failures (an unreadable file, an unknown duration).
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs failures that end an operation.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

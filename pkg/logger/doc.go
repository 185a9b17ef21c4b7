// Package logger provides structured logging with context extraction and
// Sentry integration.
//
// It extends log/slog with two capabilities: automatic context-based
// attribute injection and optional Sentry error reporting. Context
// extractors run on every log call, so request-scoped values such as
// request IDs stay fresh:
//
//	requestIDExtractor := func(ctx context.Context) (slog.Attr, bool) {
//		if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
//			return slog.String("request_id", id), true
//		}
//		return slog.Attr{}, false
//	}
//
//	log := logger.New(requestIDExtractor)
//	log.InfoContext(ctx, "request processed", slog.Int("status", 200))
//
// For production error tracking use [NewWithSentry]; with an empty DSN it
// degrades to stdout-only logging, so the same code path works in
// development. [NewNope] returns a discard logger for tests and unset
// defaults.
package logger

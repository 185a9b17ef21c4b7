package logger

import (
	"io"
	"log/slog"
)

// NewNope returns a logger that drops everything. The app falls back to it
// when no logging option is configured, so dispatch code logs
// unconditionally without nil checks.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

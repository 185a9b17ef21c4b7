package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Config holds logger settings populated from the environment.
type Config struct {
	// Level is the minimum level emitted: debug, info, warn, or error.
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// New creates a JSON-formatted logger with optional context extractors.
func New(extractors ...ContextExtractor) *slog.Logger {
	return NewWithConfig(Config{Level: "info"}, extractors...)
}

// NewWithConfig creates a JSON-formatted logger honoring cfg.Level.
// Unknown levels fall back to info.
func NewWithConfig(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	log := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	return slog.New(NewContextHandler(log, extractors...))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

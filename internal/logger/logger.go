package logger

import (
	"log/slog"
	"os"

	"github.com/kmills-dev/storyloom/internal/config"
)

// Setup builds the process logger and installs it as the slog default.
// Production gets JSON output for log shipping; everything else gets
// human-readable text.
func Setup(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler).With("env", cfg.Environment)
	slog.SetDefault(log)
	return log
}

// ForComponent tags a logger with the subsystem emitting the records,
// so graph edits and playtest sessions can be filtered apart.
func ForComponent(log *slog.Logger, name string) *slog.Logger {
	return log.With("component", name)
}

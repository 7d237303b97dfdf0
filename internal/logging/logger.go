package logging

import (
	"log/slog"
	"os"
)

// Setup initializes the global slog logger with JSON output to stdout.
// Debug output is enabled outside production.
func Setup(appEnv string) *slog.HandlerOptions {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if appEnv == "development" {
		opts.Level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, opts)))
	return opts
}

package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the global JSON logger on stdout. The level comes from
// LOG_LEVEL (debug|info|warn|error), defaulting to info. The Postgres sink
// is attached later in main, once the database is up.
func Setup() {
	slog.SetDefault(slog.New(StdoutHandler()))
}

// StdoutHandler builds the JSON stdout sink; main reuses it when the
// Postgres sink joins the fan-out.
func StdoutHandler() slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromEnv(),
	})
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

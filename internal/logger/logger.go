package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alkime/breathewise/internal/config"
)

// SetupLogger configures structured JSON logging for the server and installs
// it as the default logger.
func SetupLogger(cfg *config.Config) *slog.Logger {
	logLevel := ParseLevel(cfg.LogLevel)
	if cfg.Env == "development" {
		logLevel = min(logLevel, slog.LevelDebug)
	}

	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// SetupCLILogger installs a text logger writing to w. The terminal UI owns
// stdout, so the CLI logs to stderr or a file.
func SetupCLILogger(w io.Writer, level string) *slog.Logger {
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
	slog.SetDefault(logger)

	return logger
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

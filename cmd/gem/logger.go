package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/elee1766/gem/src/config"
	"github.com/lmittmann/tint"
)

// logFileName is used under the log directory when logging.file is unset
const logFileName = "gem.log"

// createREPLLogger creates a logger that doesn't interfere with the chat
// by writing to a file instead of stdout/stderr
func createREPLLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.Observability.Logging.Level)
	if cfg.Debug {
		level = slog.LevelDebug
	}

	logFile := cfg.Observability.Logging.File
	if logFile == "" {
		logFile = filepath.Join(cfg.StoragePaths().LogDir, logFileName)
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return discardLogger()
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return discardLogger()
	}

	return slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: level,
	}))
}

// createCLILogger creates a logger for one-shot commands that writes to stderr
func createCLILogger(logLevel, format string) *slog.Logger {
	level := parseLogLevel(logLevel)

	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: level,
	}))
}

// configLogger builds the stderr logger from the resolved config
func configLogger(cfg *config.Config) *slog.Logger {
	if cfg.Debug {
		return createCLILogger("debug", cfg.Observability.Logging.Format)
	}
	return createCLILogger(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

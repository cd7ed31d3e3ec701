// Package logging builds the structured slog logger used across ufosure.
//
// Records are JSON lines tagged with the module name and version. The
// interactive console owns the terminal, so the logger normally writes to a
// file; the LOG_LEVEL environment variable overrides the configured level.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const levelEnv = "LOG_LEVEL"

// ParseLevel maps a level name onto slog. Unknown names yield info.
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

// EffectiveLevel prefers LOG_LEVEL over the configured level.
func EffectiveLevel(configured string) slog.Level {
	if env := strings.TrimSpace(os.Getenv(levelEnv)); env != "" {
		return ParseLevel(env)
	}
	return ParseLevel(configured)
}

// New returns a JSON logger writing to w. Debug loggers include source
// locations.
func New(w io.Writer, module, version, level string) *slog.Logger {
	lvl := EffectiveLevel(level)
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	})
	return slog.New(handler).With("module", module, "version", version)
}

// OpenFile opens (appending) the log file at path and returns a logger on it.
// The returned closer releases the file.
func OpenFile(path, module, version, level string) (*slog.Logger, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, fmt.Errorf("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	// #nosec G304 -- path comes from the user's own config.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(file, module, version, level), file, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

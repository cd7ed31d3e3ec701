package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestEffectiveLevelPrefersEnv(t *testing.T) {
	t.Setenv(levelEnv, "")
	assert.Equal(t, slog.LevelWarn, EffectiveLevel("warn"))

	t.Setenv(levelEnv, "debug")
	assert.Equal(t, slog.LevelDebug, EffectiveLevel("warn"))
}

func TestNewWritesTaggedJSON(t *testing.T) {
	t.Setenv(levelEnv, "")
	var buf bytes.Buffer
	logger := New(&buf, "ufosure", "1.0.0", "info")

	logger.Debug("hidden")
	logger.Info("hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "ufosure", rec["module"])
	assert.Equal(t, "1.0.0", rec["version"])
	assert.Equal(t, "v", rec["k"])
}

func TestOpenFileAppends(t *testing.T) {
	t.Setenv(levelEnv, "")
	path := filepath.Join(t.TempDir(), "nested", "ufosure.log")

	logger, closer, err := OpenFile(path, "ufosure", "dev", "info")
	require.NoError(t, err)
	logger.Info("first")
	require.NoError(t, closer.Close())

	logger, closer, err = OpenFile(path, "ufosure", "dev", "info")
	require.NoError(t, err)
	logger.Info("second")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(data, []byte("\n")))

	_, _, err = OpenFile(" ", "ufosure", "dev", "info")
	assert.Error(t, err)
}

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the console's settings.
type Config struct {
	APIBase     string
	BasePath    string
	Mode        string
	ScriptDir   string
	LogFile     string
	LogLevel    string
	MetricsAddr string
	BufferLines int
	CommandRate float64
}

const (
	defaultConfigPath  = "~/.config/ufosure/config.toml"
	defaultAPIBase     = "127.0.0.1:8080"
	defaultBasePath    = "/"
	defaultScriptDir   = "~/.config/ufosure/scripts"
	defaultLogFile     = "~/.local/state/ufosure/ufosure.log"
	defaultLogLevel    = "info"
	defaultBufferLines = 500
	defaultCommandRate = 5.0
)

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the settings used when no file exists.
func Default() Config {
	return Config{
		APIBase:     defaultAPIBase,
		BasePath:    defaultBasePath,
		ScriptDir:   mustExpand(defaultScriptDir),
		LogFile:     mustExpand(defaultLogFile),
		LogLevel:    defaultLogLevel,
		BufferLines: defaultBufferLines,
		CommandRate: defaultCommandRate,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBase     string  `toml:"api_base"`
		BasePath    string  `toml:"base_path"`
		Mode        string  `toml:"mode"`
		ScriptDir   string  `toml:"script_dir"`
		LogFile     string  `toml:"log_file"`
		LogLevel    string  `toml:"log_level"`
		MetricsAddr string  `toml:"metrics_addr"`
		BufferLines int     `toml:"buffer_lines"`
		CommandRate float64 `toml:"command_rate"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := Config{
		APIBase:     orDefault(raw.APIBase, defaultAPIBase),
		BasePath:    orDefault(raw.BasePath, defaultBasePath),
		Mode:        strings.TrimSpace(raw.Mode),
		ScriptDir:   mustExpand(orDefault(raw.ScriptDir, defaultScriptDir)),
		LogFile:     mustExpand(orDefault(raw.LogFile, defaultLogFile)),
		LogLevel:    strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel)),
		MetricsAddr: strings.TrimSpace(raw.MetricsAddr),
		BufferLines: raw.BufferLines,
		CommandRate: raw.CommandRate,
	}
	if cfg.BufferLines <= 0 {
		cfg.BufferLines = defaultBufferLines
	}
	if cfg.CommandRate <= 0 {
		cfg.CommandRate = defaultCommandRate
	}
	return cfg, nil
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the CLI's YAML configuration. Every field has a usable
// default; a missing config file is not an error.
type Config struct {
	// StatePath is where the world snapshot lives.
	StatePath string `yaml:"state_path"`

	// JournalPath is the SQLite event journal.
	JournalPath string `yaml:"journal_path"`

	// DefaultAgent is used when a command's --from flag is omitted.
	DefaultAgent string `yaml:"default_agent"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// loadConfig reads $ACP_CONFIG or ~/.config/acp/config.yaml and
// fills in defaults, then installs the configured slog handler.
func loadConfig() (*Config, error) {
	cfg := &Config{LogLevel: "warn"}

	path := os.Getenv("ACP_CONFIG")
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".config", "acp", "config.yaml")
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults only.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	dataDir := os.Getenv("ACP_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share", "acp")
	}
	if cfg.StatePath == "" {
		cfg.StatePath = filepath.Join(dataDir, "world.acps")
	}
	if cfg.JournalPath == "" {
		cfg.JournalPath = filepath.Join(dataDir, "journal.db")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.JournalPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("bad log_level %q: %w", cfg.LogLevel, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	return cfg, nil
}

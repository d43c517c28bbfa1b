package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Binding BindingConfig `yaml:"binding"`
	Undo    UndoConfig    `yaml:"undo"`
	Janitor JanitorConfig `yaml:"janitor"`
	Sync    SyncConfig    `yaml:"sync"`
}

type StorageConfig struct {
	DataDir string `yaml:"dataDir"`
	DBPath  string `yaml:"dbPath"`
}

type BindingConfig struct {
	// Threshold is the binding distance in screen units at zoom 1.
	Threshold float64 `yaml:"threshold"`
}

type UndoConfig struct {
	MaxNodes int `yaml:"maxNodes"`
}

type JanitorConfig struct {
	// Schedule is a cron spec; empty disables the janitor.
	Schedule string `yaml:"schedule"`
}

type SyncConfig struct {
	// ExportDir receives <pageId>.json snapshots; empty disables file sync.
	ExportDir string `yaml:"exportDir"`
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "whiteboard")
	return &Config{
		Storage: StorageConfig{
			DataDir: dataDir,
			DBPath:  filepath.Join(dataDir, "whiteboard.db"),
		},
		Binding: BindingConfig{Threshold: 10},
		Undo:    UndoConfig{MaxNodes: 40},
		Janitor: JanitorConfig{Schedule: "@every 10m"},
	}
}

// Path returns the config file location: $WHITEBOARD_CONFIG, or
// ~/.config/whiteboard/config.yaml.
func Path() string {
	if p := os.Getenv("WHITEBOARD_CONFIG"); p != "" {
		return p
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "whiteboard", "config.yaml")
}

// Load reads the config file at Path, if any, over the defaults and applies
// environment overrides.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile is Load with an explicit file path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	dataDirSet := os.Getenv("WHITEBOARD_DATA_DIR") != ""
	cfg.Storage.DataDir = getEnv("WHITEBOARD_DATA_DIR", cfg.Storage.DataDir)
	if dataDirSet && os.Getenv("WHITEBOARD_DB_PATH") == "" {
		cfg.Storage.DBPath = filepath.Join(cfg.Storage.DataDir, "whiteboard.db")
	}
	cfg.Storage.DBPath = getEnv("WHITEBOARD_DB_PATH", cfg.Storage.DBPath)
	cfg.Binding.Threshold = getEnvAsFloat("WHITEBOARD_BINDING_THRESHOLD", cfg.Binding.Threshold)
	cfg.Janitor.Schedule = getEnv("WHITEBOARD_JANITOR_SCHEDULE", cfg.Janitor.Schedule)
	cfg.Sync.ExportDir = getEnv("WHITEBOARD_EXPORT_DIR", cfg.Sync.ExportDir)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Storage.DBPath == "" {
		return errors.New("config: storage.dbPath is empty")
	}
	if c.Binding.Threshold <= 0 {
		return fmt.Errorf("config: binding.threshold must be positive, got %v", c.Binding.Threshold)
	}
	if c.Undo.MaxNodes < 0 {
		return fmt.Errorf("config: undo.maxNodes must not be negative, got %d", c.Undo.MaxNodes)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

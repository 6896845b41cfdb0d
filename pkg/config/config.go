package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds all process configuration for past-midnight. Engine preferences that are
// persisted (timeout, random mode, selection) act as startup overrides when set here.
type Config struct {
	// Engine overrides; zero values leave the persisted settings alone
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"PAST_MIDNIGHT_IDLE_TIMEOUT"`
	RandomMode  *bool         `yaml:"random_mode" env:"PAST_MIDNIGHT_RANDOM"`
	Module      string        `yaml:"module" env:"PAST_MIDNIGHT_MODULE"`

	// Per-module option overrides, keyed by module id
	Modules map[string]map[string]any `yaml:"modules"`

	// Persistence
	Store StoreConfig `yaml:"store"`

	// Runtime
	FPS           int           `yaml:"fps" env:"PAST_MIDNIGHT_FPS"`
	CheckInterval time.Duration `yaml:"check_interval" env:"PAST_MIDNIGHT_CHECK_INTERVAL"`
	Tmux          bool          `yaml:"tmux" env:"PAST_MIDNIGHT_TMUX"`
	StatusLine    bool          `yaml:"status_line" env:"PAST_MIDNIGHT_STATUS_LINE"`

	// Logging
	LogFile string `yaml:"log_file" env:"PAST_MIDNIGHT_LOG_FILE"`
	Debug   bool   `yaml:"debug" env:"PAST_MIDNIGHT_DEBUG"`
}

// StoreConfig selects where settings are persisted
type StoreConfig struct {
	Backend string `yaml:"backend" env:"PAST_MIDNIGHT_STORE"`
	Path    string `yaml:"path" env:"PAST_MIDNIGHT_STORE_PATH"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendSQLite,
		},
		FPS:           30,
		CheckInterval: time.Second,
		Tmux:          true,
		StatusLine:    true,
	}
}

// Load loads configuration from the default file location and environment
func Load() (*Config, error) {
	return load(getConfigPath(), false)
}

// LoadFile loads configuration from path, which must exist, and environment
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

func load(configPath string, required bool) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil && (required || !os.IsNotExist(err)) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath(cfg.Store.Backend)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// getConfigPath returns the config file path
func getConfigPath() string {
	// Check for explicit config path
	if path := os.Getenv("PAST_MIDNIGHT_CONFIG"); path != "" {
		return path
	}

	// Check XDG config directory
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "past-midnight", "config.yaml")
	}

	// Fall back to home directory
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "past-midnight", "config.yaml")
	}

	return ""
}

// DefaultStorePath returns the settings location for backend under the XDG data directory
func DefaultStorePath(backend string) string {
	name := "settings.db"
	switch backend {
	case BackendMemory:
		return ""
	case BackendFile:
		name = "settings.json"
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "past-midnight", name)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "past-midnight", name)
	}
	return name
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(cfg *Config, path string) error {
	// #nosec G304 - The config file path comes from trusted sources (flag, env var or standard locations)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(cfg *Config) error {
	if timeout := os.Getenv("PAST_MIDNIGHT_IDLE_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid PAST_MIDNIGHT_IDLE_TIMEOUT: %w", err)
		}
		cfg.IdleTimeout = d
	}

	if random := os.Getenv("PAST_MIDNIGHT_RANDOM"); random != "" {
		b, err := parseBool("PAST_MIDNIGHT_RANDOM", random)
		if err != nil {
			return err
		}
		cfg.RandomMode = &b
	}

	if module := os.Getenv("PAST_MIDNIGHT_MODULE"); module != "" {
		cfg.Module = module
	}

	if backend := os.Getenv("PAST_MIDNIGHT_STORE"); backend != "" {
		cfg.Store.Backend = backend
	}

	if path := os.Getenv("PAST_MIDNIGHT_STORE_PATH"); path != "" {
		cfg.Store.Path = path
	}

	if fps := os.Getenv("PAST_MIDNIGHT_FPS"); fps != "" {
		n, err := strconv.Atoi(fps)
		if err != nil {
			return fmt.Errorf("invalid PAST_MIDNIGHT_FPS: %w", err)
		}
		cfg.FPS = n
	}

	if interval := os.Getenv("PAST_MIDNIGHT_CHECK_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("invalid PAST_MIDNIGHT_CHECK_INTERVAL: %w", err)
		}
		cfg.CheckInterval = d
	}

	for name, dst := range map[string]*bool{
		"PAST_MIDNIGHT_TMUX":        &cfg.Tmux,
		"PAST_MIDNIGHT_STATUS_LINE": &cfg.StatusLine,
		"PAST_MIDNIGHT_DEBUG":       &cfg.Debug,
	} {
		if v := os.Getenv(name); v != "" {
			b, err := parseBool(name, v)
			if err != nil {
				return err
			}
			*dst = b
		}
	}

	if logFile := os.Getenv("PAST_MIDNIGHT_LOG_FILE"); logFile != "" {
		cfg.LogFile = logFile
	}

	return nil
}

func parseBool(name, value string) (bool, error) {
	switch value {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s value: %q (use true/false)", name, value)
	}
}

// Validate validates the configuration
func Validate(cfg *Config) error {
	if cfg.IdleTimeout < 0 {
		return fmt.Errorf("idle_timeout must be non-negative")
	}

	if cfg.IdleTimeout > 0 && cfg.IdleTimeout < time.Millisecond {
		return fmt.Errorf("idle_timeout must be at least 1ms")
	}

	if cfg.FPS <= 0 || cfg.FPS > 240 {
		return fmt.Errorf("fps must be between 1 and 240")
	}

	if cfg.CheckInterval <= 0 {
		return fmt.Errorf("check_interval must be positive")
	}

	switch cfg.Store.Backend {
	case BackendMemory:
	case BackendFile, BackendSQLite:
		if cfg.Store.Path == "" {
			return fmt.Errorf("store.path is required for the %s backend", cfg.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store.backend %q (use memory, file or sqlite)", cfg.Store.Backend)
	}

	return nil
}

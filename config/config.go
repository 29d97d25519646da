// Package config provides configuration loading for mailpanel using TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Mount controller tuning
type Mount struct {
	DebounceMs  int `json:"debounceMs"`
	MaxAttempts int `json:"maxAttempts"`
	BackoffMs   int `json:"backoffMs"`
}

// Navigation behavior
type Navigation struct {
	BounceDelayMs int `json:"bounceDelayMs"` // Delay before re-targeting a repeated activation
}

// Storage backend selection
type Storage struct {
	Backend string `json:"backend"` // "mem", "file", or "sqlite"
	Path    string `json:"path"`    // directory (file) or database file (sqlite)
}

// Logging settings
type Logging struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// Config is the main configuration struct
type Config struct {
	Mount      Mount      `json:"mount"`
	Navigation Navigation `json:"navigation"`
	Storage    Storage    `json:"storage"`
	Logging    Logging    `json:"logging"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Mount: Mount{
			DebounceMs:  100,
			MaxAttempts: 10,
			BackoffMs:   250,
		},
		Navigation: Navigation{
			BounceDelayMs: 150,
		},
		Storage: Storage{
			Backend: "mem",
			Path:    "",
		},
		Logging: Logging{
			Level:       "info",
			Development: false,
		},
	}
}

// configDir returns the configuration directory path.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mailpanel"), nil
}

// ConfigPath returns the path to the user's config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads configuration, layering user config on top of defaults.
// Returns the default config if no user config exists.
func Load() (*Config, error) {
	cfg := Default()

	configPath, err := ConfigPath()
	if err != nil {
		return cfg, nil // Return defaults if we can't determine path
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil // Return defaults if no user config
	}

	userCfg, err := loadFromTOML(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
	}

	return Merge(cfg, userCfg), nil
}

// loadFromTOML loads a TOML config file and returns the config.
func loadFromTOML(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}
	return &cfg, nil
}

// Merge layers user config on top of defaults.
// Only non-zero values from user config override defaults.
func Merge(defaults, user *Config) *Config {
	result := *defaults

	if user.Mount.DebounceMs != 0 {
		result.Mount.DebounceMs = user.Mount.DebounceMs
	}
	if user.Mount.MaxAttempts != 0 {
		result.Mount.MaxAttempts = user.Mount.MaxAttempts
	}
	if user.Mount.BackoffMs != 0 {
		result.Mount.BackoffMs = user.Mount.BackoffMs
	}

	if user.Navigation.BounceDelayMs != 0 {
		result.Navigation.BounceDelayMs = user.Navigation.BounceDelayMs
	}

	if user.Storage.Backend != "" {
		result.Storage.Backend = user.Storage.Backend
	}
	if user.Storage.Path != "" {
		result.Storage.Path = user.Storage.Path
	}

	if user.Logging.Level != "" {
		result.Logging.Level = user.Logging.Level
	}
	if user.Logging.Development {
		result.Logging.Development = true
	}

	return &result
}

// DefaultTOML returns the default configuration as a TOML string.
// Used to generate a starter config file.
func DefaultTOML() string {
	return `# mailpanel configuration
# Save to ~/.config/mailpanel/config.toml and customize
# Only include settings you want to change from defaults

# Mount controller tuning
[mount]
debounceMs = 100     # Quiescence window before a remount attempt
maxAttempts = 10     # Startup attempts waiting for the host navigation
backoffMs = 250      # Delay between startup attempts

# Navigation behavior
[navigation]
bounceDelayMs = 150  # Delay before re-targeting a repeated activation

# Storage backend
[storage]
backend = "mem"      # "mem", "file", or "sqlite"
path = ""            # directory for "file", database file for "sqlite"

# Logging
[logging]
level = "info"
development = false
`
}

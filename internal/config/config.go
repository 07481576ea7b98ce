package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds taper CLI configuration.
type Config struct {
	// DatabasePath is the SQLite file holding saved trees.
	DatabasePath string `yaml:"database_path"`

	// Format is the default output format: json or text.
	Format string `yaml:"format"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// ScriptsDir loads bucking scripts from disk instead of the embedded set.
	ScriptsDir string `yaml:"scripts_dir"`

	// ProfileStepM is the default sampling step of the profile command.
	ProfileStepM float64 `yaml:"profile_step_m"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		DatabasePath: defaultDatabasePath(),
		Format:       "json",
		LogLevel:     "warn",
		ProfileStepM: 1,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/taper/config.yaml (or the platform
// equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".taper", "config.yaml")
	}
	return filepath.Join(dir, "taper", "config.yaml")
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".taper", "trees.db")
	}
	return filepath.Join(dir, "taper", "trees.db")
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid format %q: must be json or text", c.Format)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be debug, info, warn or error", c.LogLevel)
	}
	if !(c.ProfileStepM > 0) {
		return fmt.Errorf("invalid profile_step_m %v: must be positive", c.ProfileStepM)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TAPER_DB"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("TAPER_FORMAT"); v != "" {
		c.Format = v
	}
	if v := os.Getenv("TAPER_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("TAPER_SCRIPTS_DIR"); v != "" {
		c.ScriptsDir = v
	}
}

// Package config handles CLI configuration loading and management.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/petal-labs/anthropic/core"
)

// DefaultProfile names the keystore entry used when no profile is configured.
const DefaultProfile = "default"

// Config represents the CLI configuration.
type Config struct {
	DefaultModel string      `yaml:"default_model"`
	BaseURL      string      `yaml:"base_url,omitempty"`
	Version      string      `yaml:"version,omitempty"`
	Beta         string      `yaml:"beta,omitempty"`
	MaxTokens    int         `yaml:"max_tokens,omitempty"`
	Profile      string      `yaml:"profile,omitempty"`
	Retry        RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig overrides parts of the default backoff policy. Zero fields keep
// the default.
type RetryConfig struct {
	InitialInterval time.Duration `yaml:"initial_interval,omitempty"`
	Multiplier      float64       `yaml:"multiplier,omitempty"`
	MaxElapsedTime  time.Duration `yaml:"max_elapsed_time,omitempty"`
}

// BackoffPolicy returns the default policy with the configured overrides applied.
func (c *Config) BackoffPolicy() core.BackoffPolicy {
	p := core.DefaultBackoffPolicy()
	if c == nil {
		return p
	}
	if c.Retry.InitialInterval > 0 {
		p.InitialInterval = c.Retry.InitialInterval
	}
	if c.Retry.Multiplier >= 1 {
		p.Multiplier = c.Retry.Multiplier
	}
	if c.Retry.MaxElapsedTime > 0 {
		p.MaxElapsedTime = c.Retry.MaxElapsedTime
	}
	return p
}

// KeyProfile returns the keystore profile to read the API key from.
func (c *Config) KeyProfile() string {
	if c == nil || c.Profile == "" {
		return DefaultProfile
	}
	return c.Profile
}

// Dir returns the per-user configuration directory.
// - macOS/Linux: ~/.anthropic
// - Windows: %USERPROFILE%\.anthropic
func Dir() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		return "."
	}
	return filepath.Join(homeDir, ".anthropic")
}

// DefaultConfigPath returns the default configuration file path for the current platform.
func DefaultConfigPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// LoadConfig loads configuration from the specified path.
// If the file doesn't exist, returns an empty config without error.
// Returns an error only if the file exists but cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadEnv loads variables from the given .env files into the process
// environment. Missing files are skipped and variables that are already set
// are left untouched.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}

// Package config handles configuration loading and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the daemon.
type Config struct {
	StoragePath string `yaml:"storage_path"`
	SocketPath  string `yaml:"socket_path"`
	ListenAddr  string `yaml:"listen_addr"`

	// UserID identifies the local user's data. Single-user installs
	// never need to change it.
	UserID string `yaml:"user_id"`

	Focus FocusConfig `yaml:"focus"`

	DesktopNotifications bool `yaml:"desktop_notifications"`
}

// FocusConfig holds settings for focus-session tracking.
type FocusConfig struct {
	// DefaultGoalMinutes is the work goal used when a session is
	// started without an explicit goal.
	DefaultGoalMinutes int `yaml:"default_goal_minutes"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/tmp"
	}

	return &Config{
		StoragePath: filepath.Join(home, ".local", "share", "studyloop"),
		SocketPath:  filepath.Join(os.TempDir(), "studyloop.sock"),
		ListenAddr:  "127.0.0.1:7600",
		UserID:      "local",
		Focus: FocusConfig{
			DefaultGoalMinutes: 120,
		},
		DesktopNotifications: true,
	}
}

// Load loads configuration from the default paths, falling back to
// defaults when no config file exists.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil
	}

	configPaths := []string{
		filepath.Join(home, ".config", "studyloop", "config.yaml"),
		filepath.Join(home, ".local", "share", "studyloop", "config.yaml"),
	}

	for _, path := range configPaths {
		if err := loadFromFile(cfg, path); err == nil {
			return cfg, nil
		}
	}

	return cfg, nil
}

// loadFromFile reads a YAML config file and merges it into cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.StoragePath = expandTilde(cfg.StoragePath)
	return nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// Save writes the current config to disk.
func (c *Config) Save() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".config", "studyloop")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0600)
}

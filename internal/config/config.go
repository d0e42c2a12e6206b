// Package config handles loading and managing smschat configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the smschat configuration.
type Config struct {
	Convert ConvertConfig `toml:"convert"`
	Data    DataConfig    `toml:"data"`

	// Computed paths (not from config file)
	HomeDir string `toml:"-"`
}

// ConvertConfig holds conversion defaults, overridable per-run by
// command-line flags.
type ConvertConfig struct {
	Timezone  string `toml:"timezone"`   // Display timezone for exported logs
	ExportDir string `toml:"export_dir"` // Chat log output directory
}

// DataConfig holds data storage configuration.
type DataConfig struct {
	DatabasePath string `toml:"database_path"` // SQLite archive database
}

// DefaultHome returns the default smschat home directory.
// Respects the SMSCHAT_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("SMSCHAT_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".smschat"
	}
	return filepath.Join(home, ".smschat")
}

// Load reads the configuration from the specified file. If path is
// empty, uses the default location (~/.smschat/config.toml); a missing
// file at the default location just yields the defaults.
func Load(path string) (*Config, error) {
	homeDir := DefaultHome()

	explicit := path != ""
	if path == "" {
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := &Config{
		HomeDir: homeDir,
		Convert: ConvertConfig{
			Timezone:  "America/Los_Angeles",
			ExportDir: filepath.Join(homeDir, "chats"),
		},
		Data: DataConfig{
			DatabasePath: filepath.Join(homeDir, "smschat.db"),
		},
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// EnsureHomeDir creates the home directory if it does not exist.
func (c *Config) EnsureHomeDir() error {
	return os.MkdirAll(c.HomeDir, 0o755)
}

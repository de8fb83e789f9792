// Package config handles the XDG configuration directory, settings file and
// storage path resolution.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// SettingsFile is the optional settings filename inside the config directory.
	SettingsFile = "config.yaml"
)

// Config holds configuration paths and settings for one command run.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// File overrides Settings.Storage.File when non-empty (--file).
	File string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Settings holds values from config.yaml and TODO_* environment variables.
	Settings Settings

	// Logger is never nil once the dispatcher has set it up.
	Logger *zap.Logger

	// Fs is the filesystem settings and export files go through.
	Fs afero.Fs
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/todo or $HOME/.config/todo.
// Settings start at their defaults; call LoadSettings to read the file.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:      dir,
		Settings: DefaultSettings(),
		Logger:   zap.NewNop(),
		Fs:       afero.NewOsFs(),
	}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SettingsPath returns the path to the settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// StoragePath returns the task file path.
// Relative paths resolve against the working directory.
func (c *Config) StoragePath() string {
	if c.File != "" {
		return c.File
	}
	return c.Settings.Storage.File
}

// LoadSettings reads config.yaml from the config directory on fs, applies
// environment overrides and validates the result. fs also becomes c.Fs.
func (c *Config) LoadSettings(fs afero.Fs) error {
	c.Fs = fs
	s, err := LoadSettings(fs, c.Dir)
	if err != nil {
		return err
	}
	c.Settings = s
	return nil
}

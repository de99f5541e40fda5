package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"isearch/internal/config"
)

// Defaults are the application paths, resolved from the environment.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
	HomeDir    string
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - ISEARCH_CONFIG_PATH: config file location (default: ~/.config/isearch.toml)
//   - ISEARCH_HOME: base directory for isearch data (default: ~/.local/share/isearch)
func GetDefaults() (*Defaults, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	d := &Defaults{
		ConfigPath: os.Getenv("ISEARCH_CONFIG_PATH"),
		BaseDir:    os.Getenv("ISEARCH_HOME"),
		HomeDir:    homeDir,
	}
	if d.ConfigPath == "" {
		d.ConfigPath = filepath.Join(homeDir, ".config", "isearch.toml")
	}
	if d.BaseDir == "" {
		d.BaseDir = filepath.Join(homeDir, ".local", "share", "isearch")
	}
	d.LogDir = filepath.Join(d.BaseDir, "log")
	return d, nil
}

// NewConfig returns the built-in configuration for these paths.
func (d *Defaults) NewConfig() *config.Config {
	return config.NewConfig(d.BaseDir, d.HomeDir)
}

// LoadConfig reads the config file layered over the built-in defaults.
// A missing file yields the defaults unchanged.
func (d *Defaults) LoadConfig() (*config.Config, error) {
	cfg, err := config.ReadFromFileWithDefaults(d.ConfigPath, d.NewConfig())
	if errors.Is(err, fs.ErrNotExist) {
		return d.NewConfig(), nil
	}
	return cfg, err
}

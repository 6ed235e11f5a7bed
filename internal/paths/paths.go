// Package paths resolves configuration and data directory locations.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
)

// AppName names the per-user configuration and data directories.
const AppName = "loadout"

// CWD-relative data directory name used when nothing overrides it.
const DefaultDataDirName = ".loadout-db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "LOADOUT_CONFIG_DIR"
	EnvDataDir   = "LOADOUT_DATA_DIR"
)

// Overrides holds the directory overrides read from the environment.
type Overrides struct {
	ConfigDir string `env:"LOADOUT_CONFIG_DIR"`
	DataDir   string `env:"LOADOUT_DATA_DIR"`
}

// LoadOverrides parses the LOADOUT_* directory variables.
func LoadOverrides() (Overrides, error) {
	var o Overrides
	if err := env.Parse(&o); err != nil {
		return Overrides{}, fmt.Errorf("parse env: %w", err)
	}
	return o, nil
}

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/loadout (fallback ~/.config/loadout)
// macOS:   ~/Library/Application Support/loadout
// Windows: %APPDATA%/loadout
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/loadout (fallback ~/.local/share/loadout)
// macOS:   ~/Library/Application Support/loadout
// Windows: %APPDATA%/loadout
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", AppName), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > LOADOUT_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	o, err := LoadOverrides()
	if err != nil {
		return "", err
	}
	if o.ConfigDir != "" {
		return filepath.Abs(o.ConfigDir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > LOADOUT_DATA_DIR env > $(CWD)/.loadout-db.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	o, err := LoadOverrides()
	if err != nil {
		return "", err
	}
	if o.DataDir != "" {
		return filepath.Abs(o.DataDir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

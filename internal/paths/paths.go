// Package paths resolves where coffer keeps its configuration and its
// database. Both follow the same precedence: an explicit flag, then (for the
// data directory) config.yaml, then a COFFER_* environment variable, then
// the per-user platform location.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under the platform locations.
const AppName = "coffer"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "COFFER_CONFIG_DIR"
	EnvDataDir   = "COFFER_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdgDir describes one XDG base directory: its environment variable and the
// home-relative fallback.
type xdgDir struct {
	env      string
	fallback []string
}

var (
	xdgConfig = xdgDir{env: "XDG_CONFIG_HOME", fallback: []string{".config"}}
	xdgData   = xdgDir{env: "XDG_DATA_HOME", fallback: []string{".local", "share"}}
)

// DefaultConfigDir returns the platform-specific configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/coffer (fallback ~/.config/coffer)
// macOS:   ~/Library/Application Support/coffer
// Windows: %APPDATA%/coffer
func DefaultConfigDir() (string, error) {
	return appDir(xdgConfig)
}

// DefaultDataDir returns the platform-specific data directory. On macOS and
// Windows it is the same as the configuration directory.
//
// Linux:   $XDG_DATA_HOME/coffer (fallback ~/.local/share/coffer)
func DefaultDataDir() (string, error) {
	return appDir(xdgData)
}

func appDir(x xdgDir) (string, error) {
	if platformDir.goos != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if v := os.Getenv(x.env); v != "" {
		return filepath.Join(v, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, x.fallback...), AppName)...), nil
}

// ResolveConfigDir returns the configuration directory:
// flag > COFFER_CONFIG_DIR > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	return resolve(DefaultConfigDir, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir returns the data directory:
// flag > config.yaml data_dir > COFFER_DATA_DIR > DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	return resolve(DefaultDataDir, flag, configValue, os.Getenv(EnvDataDir))
}

// resolve returns the first non-empty candidate as an absolute path, or the
// default when all are empty.
func resolve(def func() (string, error), candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	return def()
}

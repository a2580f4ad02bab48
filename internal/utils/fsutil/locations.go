// fsutil/locations.go
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/deploymenttheory/go-dex-checksum/internal/utils/osutil"
)

// GetHomeDir returns the user's home directory
func GetHomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return home, nil
}

// xdgDir resolves an XDG base directory, falling back to home/def when the
// variable is unset.
func xdgDir(env string, home string, def ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	return filepath.Join(append([]string{home}, def...)...)
}

// GetConfigDir returns the per-user configuration directory for the application
func GetConfigDir(appName string) (string, error) {
	if osutil.IsDevEnvironment() {
		return "config", nil
	}

	home, err := GetHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case osutil.Windows:
		return filepath.Join(xdgDir("APPDATA", home, "AppData", "Roaming"), appName), nil
	case osutil.MacOS:
		return filepath.Join(home, "Library", "Application Support", appName), nil
	default:
		return filepath.Join(xdgDir("XDG_CONFIG_HOME", home, ".config"), appName), nil
	}
}

// GetSystemConfigDir returns the system-wide configuration directory
func GetSystemConfigDir(appName string) (string, error) {
	if osutil.IsDevEnvironment() {
		return "config", nil
	}

	switch runtime.GOOS {
	case osutil.Windows:
		programData := os.Getenv("ProgramData")
		if programData == "" {
			programData = `C:\ProgramData`
		}
		return filepath.Join(programData, appName), nil
	case osutil.MacOS:
		return filepath.Join("/Library", "Application Support", appName), nil
	default:
		return filepath.Join("/etc", appName), nil
	}
}

// GetLogDir returns the per-user log directory for the application
func GetLogDir(appName string) (string, error) {
	if osutil.IsDevEnvironment() {
		return "logs", nil
	}

	home, err := GetHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case osutil.Windows:
		return filepath.Join(xdgDir("LOCALAPPDATA", home, "AppData", "Local"), appName, "Logs"), nil
	case osutil.MacOS:
		return filepath.Join(home, "Library", "Logs", appName), nil
	default:
		if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
			return filepath.Join(stateHome, appName, "logs"), nil
		}
		return filepath.Join(xdgDir("XDG_DATA_HOME", home, ".local", "share"), appName, "logs"), nil
	}
}

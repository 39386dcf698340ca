package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const appDirName = "focus"

// Dir returns the directory holding settings, state and logs. FOCUS_HOME
// overrides the platform default under the user config directory.
func Dir() (string, error) {
	if home := os.Getenv("FOCUS_HOME"); home != "" {
		return home, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config directory: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// Path returns the settings file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Package platform holds OS integration: login autostart and the
// single-instance control channel.
package platform

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrInvalidLaunch indicates an autostart entry without a name or executable.
var ErrInvalidLaunch = errors.New("invalid autostart entry")

// Launch describes the command started at login.
type Launch struct {
	AppName  string
	ExecPath string
	Args     []string
}

// Autostart registers the application to start at login.
type Autostart interface {
	Enable(launch Launch) error
	Disable(appName string) error
	Enabled(appName string) (bool, error)
}

type platformAutostart struct{}

// NewAutostart returns the implementation for the running OS.
func NewAutostart() Autostart {
	return platformAutostart{}
}

func (launch Launch) validate() error {
	if strings.TrimSpace(launch.AppName) == "" {
		return fmt.Errorf("%w: app name is empty", ErrInvalidLaunch)
	}
	if strings.TrimSpace(launch.ExecPath) == "" {
		return fmt.Errorf("%w: exec path is empty", ErrInvalidLaunch)
	}
	return nil
}

// slug turns an app name into a file-name-safe identifier.
func slug(appName string) string {
	name := strings.ToLower(strings.TrimSpace(appName))
	if name == "" {
		name = "focus"
	}
	return strings.ReplaceAll(name, " ", "-")
}

func userConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err == nil && configDir != "" {
		return configDir, nil
	}
	homeDir, homeErr := os.UserHomeDir()
	if homeErr != nil {
		return "", fmt.Errorf("get config dir: %w", errors.Join(err, homeErr))
	}
	return fallbackConfigDir(homeDir), nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

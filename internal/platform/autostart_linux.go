//go:build linux

package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (platformAutostart) Enable(launch Launch) error {
	if err := launch.validate(); err != nil {
		return fmt.Errorf("enable autostart: %w", err)
	}
	path, err := desktopEntryPath(launch.AppName)
	if err != nil {
		return fmt.Errorf("enable autostart: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("enable autostart: create autostart dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(buildDesktopEntry(launch)), 0o644); err != nil {
		return fmt.Errorf("enable autostart: write desktop entry: %w", err)
	}
	return nil
}

func (platformAutostart) Disable(appName string) error {
	path, err := desktopEntryPath(appName)
	if err != nil {
		return fmt.Errorf("disable autostart: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("disable autostart: remove desktop entry: %w", err)
	}
	return nil
}

func (platformAutostart) Enabled(appName string) (bool, error) {
	path, err := desktopEntryPath(appName)
	if err != nil {
		return false, err
	}
	return fileExists(path)
}

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config")
}

func desktopEntryPath(appName string) (string, error) {
	configDir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "autostart", slug(appName)+".desktop"), nil
}

func buildDesktopEntry(launch Launch) string {
	parts := make([]string, 0, len(launch.Args)+1)
	for _, part := range append([]string{launch.ExecPath}, launch.Args...) {
		if strings.ContainsAny(part, " \t") && !strings.HasPrefix(part, `"`) {
			part = `"` + part + `"`
		}
		parts = append(parts, part)
	}

	return fmt.Sprintf(
		`[Desktop Entry]
Type=Application
Name=%s
Comment=Focus, rest and free-time timer
Exec=%s
X-GNOME-Autostart-enabled=true
Terminal=false
`,
		launch.AppName,
		strings.Join(parts, " "),
	)
}

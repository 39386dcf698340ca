//go:build windows

package platform

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

const registryRunKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`

func (platformAutostart) Enable(launch Launch) error {
	if err := launch.validate(); err != nil {
		return fmt.Errorf("enable autostart: %w", err)
	}
	command := exec.Command(
		"reg", "add", registryRunKey,
		"/v", launch.AppName,
		"/t", "REG_SZ",
		"/d", commandLine(launch),
		"/f",
	)
	if output, err := command.CombinedOutput(); err != nil {
		return fmt.Errorf("enable autostart: reg add failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (platformAutostart) Disable(appName string) error {
	enabled, err := platformAutostart{}.Enabled(appName)
	if err != nil || !enabled {
		return err
	}
	command := exec.Command("reg", "delete", registryRunKey, "/v", appName, "/f")
	if output, err := command.CombinedOutput(); err != nil {
		return fmt.Errorf("disable autostart: reg delete failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (platformAutostart) Enabled(appName string) (bool, error) {
	command := exec.Command("reg", "query", registryRunKey, "/v", appName)
	if err := command.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return false, nil
		}
		return false, fmt.Errorf("query autostart: %w", err)
	}
	return true, nil
}

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, "AppData", "Roaming")
}

func commandLine(launch Launch) string {
	parts := []string{fmt.Sprintf(`"%s"`, strings.Trim(launch.ExecPath, `"`))}
	parts = append(parts, launch.Args...)
	return strings.Join(parts, " ")
}

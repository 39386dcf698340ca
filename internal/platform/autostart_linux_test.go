//go:build linux

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutostartLinux(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	autostart := NewAutostart()

	enabled, err := autostart.Enabled("Focus")
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, autostart.Enable(Launch{AppName: "Focus", ExecPath: "/opt/my apps/focus", Args: []string{"run"}}))
	enabled, err = autostart.Enabled("Focus")
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, autostart.Disable("Focus"))
	require.NoError(t, autostart.Disable("Focus"))
	enabled, err = autostart.Enabled("Focus")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestBuildDesktopEntryQuotesPaths(t *testing.T) {
	entry := buildDesktopEntry(Launch{AppName: "Focus", ExecPath: "/opt/my apps/focus", Args: []string{"run", "--headless"}})
	assert.Contains(t, entry, `Exec="/opt/my apps/focus" run --headless`)
	assert.Contains(t, entry, "Name=Focus")
}

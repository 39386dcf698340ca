package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focus/internal/core/model"
)

func newTestManager(callbacks Callbacks) *Manager {
	return &Manager{
		callbacks: callbacks,
		snapshot:  model.Snapshot{Phase: model.PhaseStopped},
	}
}

func TestMenuFollowsPhase(t *testing.T) {
	manager := newTestManager(Callbacks{})
	remaining := 12
	manager.snapshot = model.Snapshot{
		Phase:            model.PhaseFocusing,
		RemainingMinutes: &remaining,
		Counters:         model.Counters{FocusMinutesAccrued: 50, FreeMinutesBalance: 10},
	}

	menu := manager.buildMenuLocked()
	byLabel := map[string]bool{}
	for _, item := range menu.Items {
		byLabel[item.Label] = item.Disabled
	}

	assert.Contains(t, byLabel, "Focus: 12 min left")
	assert.Contains(t, byLabel, "Stop focus")
	assert.False(t, byLabel["Stop focus"])
	assert.True(t, byLabel["Start free time (10 min)"])
	assert.False(t, byLabel["Stop"])
}

func TestMenuListsPendingNotifications(t *testing.T) {
	var acknowledged []model.NotificationID
	manager := newTestManager(Callbacks{
		OnAcknowledge: func(id model.NotificationID) { acknowledged = append(acknowledged, id) },
	})
	notification, ok := model.CompletionNotification(model.PhaseFocusing)
	require.True(t, ok)
	manager.pending = []model.Notification{notification}

	menu := manager.buildMenuLocked()
	var found bool
	for _, item := range menu.Items {
		if item.Label == "Focus finished: Click to start rest." {
			found = true
			item.Action()
		}
	}
	require.True(t, found)
	assert.Equal(t, []model.NotificationID{model.NotificationFocus}, acknowledged)
}

func TestCanToggle(t *testing.T) {
	assert.True(t, canToggle(model.PhaseStopped, model.PhaseFreeTime))
	assert.True(t, canToggle(model.PhaseFreeTime, model.PhaseFreeTime))
	assert.False(t, canToggle(model.PhaseResting, model.PhaseFreeTime))
	assert.True(t, canToggle(model.PhaseResting, model.PhaseFocusing))
}

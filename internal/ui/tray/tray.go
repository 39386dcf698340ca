// Package tray drives the system tray icon, its countdown badge and menu.
package tray

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/systray"

	"focus/internal/core/model"
	"focus/internal/ui/status"
	"focus/resources"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnToggleFocus func()
	OnToggleFree  func()
	OnStop        func()
	OnAcknowledge func(model.NotificationID)
	OnPreferences func()
	OnReset       func()
	OnQuit        func()
}

// Manager handles system tray state. Its methods may be called from any
// goroutine; rendering happens on the fyne main goroutine.
type Manager struct {
	app       desktop.App
	callbacks Callbacks
	setTitle  func(string)

	mu       sync.Mutex
	live     bool
	snapshot model.Snapshot
	pending  []model.Notification
	badge    string
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
		setTitle:  systray.SetTitle,
		snapshot:  model.Snapshot{Phase: model.PhaseStopped},
	}
	manager.render()
	return manager
}

// Update replaces the displayed state.
func (manager *Manager) Update(snapshot model.Snapshot) {
	manager.mu.Lock()
	manager.snapshot = snapshot
	if remaining, ok := snapshot.DisplayRemaining(); ok {
		manager.badge = status.Badge(remaining)
	} else {
		manager.badge = ""
	}
	manager.mu.Unlock()
	manager.render()
}

// SetPending lists the notifications awaiting acknowledgement.
func (manager *Manager) SetPending(pending []model.Notification) {
	manager.mu.Lock()
	manager.pending = append([]model.Notification(nil), pending...)
	manager.mu.Unlock()
	manager.render()
}

// ShowCountdown sets the badge to minutes.
func (manager *Manager) ShowCountdown(phase model.Phase, minutes int) {
	manager.mu.Lock()
	manager.snapshot.Phase = phase
	remaining := minutes
	manager.snapshot.RemainingMinutes = &remaining
	manager.badge = status.Badge(minutes)
	manager.mu.Unlock()
	manager.render()
}

// ClearCountdown hides the badge.
func (manager *Manager) ClearCountdown() {
	manager.mu.Lock()
	manager.badge = ""
	manager.snapshot.RemainingMinutes = nil
	manager.mu.Unlock()
	manager.render()
}

// Start switches rendering to the fyne main goroutine. Call it once the
// application is running; until then changes only set the icon and menu.
func (manager *Manager) Start() {
	manager.mu.Lock()
	manager.live = true
	manager.mu.Unlock()
	manager.render()
}

func (manager *Manager) render() {
	manager.mu.Lock()
	live := manager.live
	snapshot := manager.snapshot
	badge := manager.badge
	menu := manager.buildMenuLocked()
	manager.mu.Unlock()

	apply := func() {
		if manager.app != nil {
			manager.app.SetSystemTrayIcon(resources.PhaseIcon(snapshot.Phase))
			manager.app.SetSystemTrayMenu(menu)
		}
		if live && manager.setTitle != nil {
			manager.setTitle(badge)
		}
	}
	if !live {
		apply()
		return
	}
	fyne.Do(apply)
}

func (manager *Manager) buildMenuLocked() *fyne.Menu {
	snapshot := manager.snapshot

	statusItem := fyne.NewMenuItem(status.Line(snapshot), nil)
	statusItem.Disabled = true
	countersItem := fyne.NewMenuItem(status.Counters(snapshot.Counters), nil)
	countersItem.Disabled = true

	items := []*fyne.MenuItem{statusItem, countersItem, fyne.NewMenuItemSeparator()}

	for _, notification := range manager.pending {
		id := notification.ID
		label := fmt.Sprintf("%s: %s", notification.Title, notification.Body)
		items = append(items, fyne.NewMenuItem(label, func() {
			if manager.callbacks.OnAcknowledge != nil {
				manager.callbacks.OnAcknowledge(id)
			}
		}))
	}
	if len(manager.pending) > 0 {
		items = append(items, fyne.NewMenuItemSeparator())
	}

	focusLabel := "Start focus"
	if snapshot.Phase == model.PhaseFocusing {
		focusLabel = "Stop focus"
	}
	focusItem := fyne.NewMenuItem(focusLabel, manager.callbacks.OnToggleFocus)
	focusItem.Disabled = !canToggle(snapshot.Phase, model.PhaseFocusing)

	freeLabel := fmt.Sprintf("Start free time (%s)", status.Minutes(snapshot.Counters.FreeMinutesBalance))
	if snapshot.Phase == model.PhaseFreeTime {
		freeLabel = "Stop free time"
	}
	freeItem := fyne.NewMenuItem(freeLabel, manager.callbacks.OnToggleFree)
	freeItem.Disabled = !canToggle(snapshot.Phase, model.PhaseFreeTime)

	stopItem := fyne.NewMenuItem("Stop", manager.callbacks.OnStop)
	stopItem.Disabled = snapshot.Phase == model.PhaseStopped

	items = append(items,
		focusItem,
		freeItem,
		stopItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Preferences", manager.callbacks.OnPreferences),
		fyne.NewMenuItem("Reset all", manager.callbacks.OnReset),
		fyne.NewMenuItem("Quit", manager.callbacks.OnQuit),
	)
	return fyne.NewMenu("Focus", items...)
}

// canToggle reports whether the toggle for target is usable in phase.
func canToggle(phase, target model.Phase) bool {
	if phase == target {
		return true
	}
	return model.CanTransition(phase, target)
}

package timekeeper

import (
	"time"

	"focus/internal/core/model"
)

// SignalType names an outbound synchronization signal.
type SignalType string

const (
	SignalPhaseOrTimerChanged SignalType = "phase_or_timer_changed"
	SignalCountersChanged     SignalType = "counters_changed"
	SignalStateWasReset       SignalType = "state_was_reset"
)

// Signal tells observers to refresh their view from the store. It carries
// the phase for convenience only; the store stays authoritative.
type Signal struct {
	Type  SignalType
	Phase model.Phase
	At    time.Time
}

// CommandType names an inbound control message.
type CommandType string

const (
	CommandChangePhase         CommandType = "changeState"
	CommandReset               CommandType = "clear"
	CommandUpdateConfig        CommandType = "update-config"
	CommandNotificationClicked CommandType = "notification-clicked"
)

// Command is an inbound control message from a UI surface or another process.
type Command struct {
	Type           CommandType
	Phase          model.Phase
	Config         model.Config
	NotificationID model.NotificationID
}

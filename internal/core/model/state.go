package model

import "time"

// Alarm describes one activation of a timed phase. It is written once when
// the phase starts and every wake-up recomputes elapsed time against it.
type Alarm struct {
	ID                          string    `json:"id"`
	InitialDurationMinutes      int       `json:"initialDurationMinutes"`
	StartTimestamp              time.Time `json:"startTimestamp"`
	Phase                       Phase     `json:"phase"`
	CountsTowardFreeTimeBalance bool      `json:"countsTowardFreeTimeBalance"`
}

// ElapsedMinutes returns whole minutes since the alarm started.
// A clock that moved backwards yields zero rather than a negative value.
func (alarm Alarm) ElapsedMinutes(now time.Time) int {
	elapsed := now.Sub(alarm.StartTimestamp)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / time.Minute)
}

// RemainingMinutes returns the countdown value at the given instant.
// The result may be negative when wake-ups were missed past the deadline.
func (alarm Alarm) RemainingMinutes(now time.Time) int {
	return alarm.InitialDurationMinutes - alarm.ElapsedMinutes(now)
}

// Counters are the accrued totals that persist across cycles.
type Counters struct {
	FocusMinutesAccrued int `json:"focusMinutesAccrued"`
	FreeMinutesBalance  int `json:"freeMinutesBalance"`
}

// Snapshot is a full read of the persisted timer state.
type Snapshot struct {
	Phase            Phase    `json:"phase"`
	RemainingMinutes *int     `json:"remainingMinutes"`
	Counters         Counters `json:"counters"`
	Config           Config   `json:"config"`
	Alarm            *Alarm   `json:"alarm,omitempty"`
}

// DisplayRemaining returns the remaining minutes clamped for display and
// whether a countdown should be shown at all.
func (snapshot Snapshot) DisplayRemaining() (int, bool) {
	if snapshot.Phase == PhaseStopped || snapshot.RemainingMinutes == nil {
		return 0, false
	}
	remaining := *snapshot.RemainingMinutes
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

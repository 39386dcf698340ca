package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPhase indicates a phase value outside the four known phases.
var ErrUnknownPhase = errors.New("unknown phase")

// Phase is the active operating mode of the timer.
type Phase string

// The persisted spellings match the keys used by notifications and control messages.
const (
	PhaseStopped  Phase = "stop"
	PhaseFocusing Phase = "focus"
	PhaseResting  Phase = "rest"
	PhaseFreeTime Phase = "free"
)

// Phases lists every phase in display order.
func Phases() []Phase {
	return []Phase{PhaseStopped, PhaseFocusing, PhaseResting, PhaseFreeTime}
}

// Valid reports whether the phase is one of the known phases.
func (phase Phase) Valid() bool {
	switch phase {
	case PhaseStopped, PhaseFocusing, PhaseResting, PhaseFreeTime:
		return true
	}
	return false
}

// Timed reports whether the phase runs a countdown.
func (phase Phase) Timed() bool {
	return phase.Valid() && phase != PhaseStopped
}

// Label returns the human-readable name of the phase.
func (phase Phase) Label() string {
	switch phase {
	case PhaseStopped:
		return "stopped"
	case PhaseFocusing:
		return "focus"
	case PhaseResting:
		return "rest"
	case PhaseFreeTime:
		return "free time"
	}
	return string(phase)
}

// ParsePhase accepts the persisted spelling or a few common aliases.
func ParsePhase(value string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "stop", "stopped":
		return PhaseStopped, nil
	case "focus", "focusing":
		return PhaseFocusing, nil
	case "rest", "resting":
		return PhaseResting, nil
	case "free", "freetime", "free-time", "free_time":
		return PhaseFreeTime, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPhase, value)
}

var validTransitions = map[Phase][]Phase{
	PhaseStopped:  {PhaseStopped, PhaseFocusing, PhaseResting, PhaseFreeTime},
	PhaseFocusing: {PhaseStopped, PhaseResting},
	PhaseResting:  {PhaseStopped, PhaseFocusing},
	PhaseFreeTime: {PhaseStopped, PhaseFocusing},
}

// CanTransition reports whether moving from one phase to another is allowed.
// Stopped may move to Resting because a focus notification is acknowledged
// after focus completion has already stopped the timer.
func CanTransition(from, to Phase) bool {
	for _, target := range validTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

package model

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig indicates a timer configuration with a non-positive duration.
var ErrInvalidConfig = errors.New("invalid timer configuration")

// Default durations in minutes used on first run and after a full reset.
const (
	DefaultFocusTime = 60
	DefaultFreeTime  = 15
	DefaultRestTime  = 10
)

// Config holds the user-editable durations, in minutes.
// FreeTime is the free-time credit earned by each completed focus phase.
type Config struct {
	FocusTime int `json:"focusTime" yaml:"focus_time"`
	FreeTime  int `json:"freeTime" yaml:"free_time"`
	RestTime  int `json:"restTime" yaml:"rest_time"`
}

// DefaultConfig returns the first-run configuration.
func DefaultConfig() Config {
	return Config{
		FocusTime: DefaultFocusTime,
		FreeTime:  DefaultFreeTime,
		RestTime:  DefaultRestTime,
	}
}

// Validate checks that every duration is positive.
func (config Config) Validate() error {
	if config.FocusTime <= 0 {
		return fmt.Errorf("%w: focus time must be positive, got %d", ErrInvalidConfig, config.FocusTime)
	}
	if config.FreeTime <= 0 {
		return fmt.Errorf("%w: free time must be positive, got %d", ErrInvalidConfig, config.FreeTime)
	}
	if config.RestTime <= 0 {
		return fmt.Errorf("%w: rest time must be positive, got %d", ErrInvalidConfig, config.RestTime)
	}
	return nil
}

// Package clock abstracts wall time and delayed callbacks so the countdown
// engine can be driven by a fake clock in tests.
package clock

import "time"

// Timer is a pending callback that can be stopped.
type Timer interface {
	Stop() bool
}

// Clock provides the current time and delayed callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real implements Clock using the system clock.
type Real struct{}

// Now returns the current time from the system clock.
func (Real) Now() time.Time {
	return time.Now()
}

// AfterFunc runs f in its own goroutine after d.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

var _ Clock = Real{}

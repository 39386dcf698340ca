// Package testutil provides deterministic helpers shared by package tests.
package testutil

import (
	"sort"
	"sync"
	"time"

	"focus/internal/clock"
)

// FakeClock is a manually driven clock. Callbacks run synchronously on the
// goroutine that advances the clock.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	seq    int
}

type fakeTimer struct {
	clock    *FakeClock
	deadline time.Time
	seq      int
	fn       func()
	stopped  bool
	fired    bool
}

// NewFakeClock creates a clock fixed at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the fake current time.
func (fake *FakeClock) Now() time.Time {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.now
}

// AfterFunc registers fn to run once the clock reaches now+d.
func (fake *FakeClock) AfterFunc(d time.Duration, fn func()) clock.Timer {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.seq++
	timer := &fakeTimer{clock: fake, deadline: fake.now.Add(d), seq: fake.seq, fn: fn}
	fake.timers = append(fake.timers, timer)
	return timer
}

// Stop prevents the timer from firing.
func (timer *fakeTimer) Stop() bool {
	timer.clock.mu.Lock()
	defer timer.clock.mu.Unlock()
	if timer.stopped || timer.fired {
		return false
	}
	timer.stopped = true
	return true
}

// Advance moves time forward by d, firing every timer whose deadline is
// reached with the clock set to that deadline. Timers armed by callbacks
// fire too if they fall inside the window.
func (fake *FakeClock) Advance(d time.Duration) {
	fake.mu.Lock()
	target := fake.now.Add(d)
	fake.mu.Unlock()

	for {
		timer := fake.nextDue(target)
		if timer == nil {
			break
		}
		fake.mu.Lock()
		if timer.deadline.After(fake.now) {
			fake.now = timer.deadline
		}
		fake.mu.Unlock()
		timer.fn()
	}

	fake.mu.Lock()
	fake.now = target
	fake.mu.Unlock()
}

// Jump moves time forward by d without firing anything, as when the host
// suspends the process.
func (fake *FakeClock) Jump(d time.Duration) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.now = fake.now.Add(d)
}

// FireDue fires every timer that is due at the current time.
func (fake *FakeClock) FireDue() {
	for {
		timer := fake.nextDue(fake.Now())
		if timer == nil {
			return
		}
		timer.fn()
	}
}

// Pending returns the number of timers that have neither fired nor stopped.
func (fake *FakeClock) Pending() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	count := 0
	for _, timer := range fake.timers {
		if !timer.stopped && !timer.fired {
			count++
		}
	}
	return count
}

func (fake *FakeClock) nextDue(limit time.Time) *fakeTimer {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	live := fake.timers[:0]
	for _, timer := range fake.timers {
		if !timer.stopped && !timer.fired {
			live = append(live, timer)
		}
	}
	fake.timers = live
	sort.SliceStable(fake.timers, func(i, j int) bool {
		if fake.timers[i].deadline.Equal(fake.timers[j].deadline) {
			return fake.timers[i].seq < fake.timers[j].seq
		}
		return fake.timers[i].deadline.Before(fake.timers[j].deadline)
	})

	if len(fake.timers) == 0 || fake.timers[0].deadline.After(limit) {
		return nil
	}
	timer := fake.timers[0]
	timer.fired = true
	return timer
}

var _ clock.Clock = (*FakeClock)(nil)

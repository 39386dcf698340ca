package clock

import (
	"sync"
	"time"
)

// Scheduler holds at most one pending wake-up. Arming replaces whatever was
// pending, which is the only cancellation mechanism callers need.
type Scheduler struct {
	mu      sync.Mutex
	clock   Clock
	pending Timer
	armed   uint64
}

// NewScheduler creates a single-slot scheduler on top of clock.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = Real{}
	}
	return &Scheduler{clock: clock}
}

// ArmOnce schedules fn after delay, superseding any pending wake-up.
func (scheduler *Scheduler) ArmOnce(delay time.Duration, fn func()) {
	if delay < 0 {
		delay = 0
	}

	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	if scheduler.pending != nil {
		scheduler.pending.Stop()
	}
	scheduler.armed++
	generation := scheduler.armed
	scheduler.pending = scheduler.clock.AfterFunc(delay, func() {
		scheduler.mu.Lock()
		current := scheduler.armed == generation
		if current {
			scheduler.pending = nil
		}
		scheduler.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel drops the pending wake-up, if any.
func (scheduler *Scheduler) Cancel() {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	if scheduler.pending != nil {
		scheduler.pending.Stop()
		scheduler.pending = nil
	}
	scheduler.armed++
}

// Pending reports whether a wake-up is armed.
func (scheduler *Scheduler) Pending() bool {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	return scheduler.pending != nil
}

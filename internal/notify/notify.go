// Package notify delivers phase completion alerts to the user.
package notify

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"focus/internal/core/model"
)

// Sink is a single notification surface.
type Sink interface {
	Notify(ctx context.Context, notification model.Notification) error
	Dismiss(ctx context.Context, id model.NotificationID) error
}

// Multi fans notifications out to every sink and remembers which ones are
// still waiting for the user. Raising an ID that is pending replaces it.
type Multi struct {
	mu       sync.Mutex
	sinks    []Sink
	pending  map[model.NotificationID]model.Notification
	onChange func([]model.Notification)
	logger   zerolog.Logger
}

// NewMulti creates a fan-out notifier over sinks.
func NewMulti(logger zerolog.Logger, sinks ...Sink) *Multi {
	return &Multi{
		sinks:   sinks,
		pending: make(map[model.NotificationID]model.Notification),
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// OnChange registers a callback invoked with the pending set after every change.
func (multi *Multi) OnChange(fn func([]model.Notification)) {
	multi.mu.Lock()
	multi.onChange = fn
	multi.mu.Unlock()
}

// Notify delivers notification to every sink. All sinks are attempted even
// when some fail.
func (multi *Multi) Notify(ctx context.Context, notification model.Notification) error {
	var errs []error
	for _, sink := range multi.sinks {
		if err := sink.Notify(ctx, notification); err != nil {
			errs = append(errs, err)
		}
	}

	multi.mu.Lock()
	if notification.Persistent {
		multi.pending[notification.ID] = notification
	}
	pending, onChange := multi.pendingLocked(), multi.onChange
	multi.mu.Unlock()

	multi.logger.Debug().Str("notification", string(notification.ID)).Msg("notification raised")
	if onChange != nil {
		onChange(pending)
	}
	return errors.Join(errs...)
}

// Dismiss withdraws the notification with id from every sink.
func (multi *Multi) Dismiss(ctx context.Context, id model.NotificationID) error {
	multi.mu.Lock()
	_, wasPending := multi.pending[id]
	delete(multi.pending, id)
	pending, onChange := multi.pendingLocked(), multi.onChange
	multi.mu.Unlock()

	var errs []error
	for _, sink := range multi.sinks {
		if err := sink.Dismiss(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	if wasPending && onChange != nil {
		onChange(pending)
	}
	return errors.Join(errs...)
}

// Pending returns the notifications waiting for acknowledgement, ordered by ID.
func (multi *Multi) Pending() []model.Notification {
	multi.mu.Lock()
	defer multi.mu.Unlock()
	return multi.pendingLocked()
}

func (multi *Multi) pendingLocked() []model.Notification {
	pending := make([]model.Notification, 0, len(multi.pending))
	for _, notification := range multi.pending {
		pending = append(pending, notification)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending
}

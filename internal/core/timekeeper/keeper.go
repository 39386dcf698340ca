package timekeeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"focus/internal/clock"
	"focus/internal/core/model"
	"focus/internal/storage"
)

var (
	// ErrInvalidTransition is returned when the current phase may not move to the requested one.
	ErrInvalidTransition = errors.New("invalid phase transition")

	// ErrUnknownCommand is returned for inbound messages of an unknown type.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUnknownNotification is returned when acknowledging an unknown notification.
	ErrUnknownNotification = errors.New("unknown notification")
)

// Scheduler arms a single pending wake-up. Arming supersedes the previous one.
type Scheduler interface {
	ArmOnce(delay time.Duration, fn func())
	Cancel()
}

// Notifier delivers user-facing alerts.
type Notifier interface {
	Notify(ctx context.Context, notification model.Notification) error
	Dismiss(ctx context.Context, id model.NotificationID) error
}

// Display shows the countdown next to the app, like a badge.
type Display interface {
	ShowCountdown(phase model.Phase, minutes int)
	ClearCountdown()
}

// Config contains runtime options for Keeper.
type Config struct {
	WakeInterval time.Duration
	WakeTimeout  time.Duration
	Defaults     model.Config
}

// Dependencies are the capabilities Keeper drives.
type Dependencies struct {
	Repository *storage.Repository
	Clock      clock.Clock
	Scheduler  Scheduler
	Notifier   Notifier
	Display    Display
	Logger     zerolog.Logger
}

// Keeper is the phase state machine and wake-driven countdown engine.
// Handlers are serialized by mu; the store is the only state that outlives
// a handler.
type Keeper struct {
	mu        sync.Mutex
	repo      *storage.Repository
	clock     clock.Clock
	scheduler Scheduler
	notifier  Notifier
	display   Display
	logger    zerolog.Logger
	options   Config
	newID     func() string

	observersMu sync.Mutex
	observers   []chan Signal
}

// New creates a Keeper.
func New(deps Dependencies, options Config) *Keeper {
	if options.WakeInterval <= 0 {
		options.WakeInterval = time.Minute
	}
	if options.WakeTimeout <= 0 {
		options.WakeTimeout = 30 * time.Second
	}
	if options.Defaults == (model.Config{}) {
		options.Defaults = model.DefaultConfig()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Scheduler == nil {
		deps.Scheduler = clock.NewScheduler(deps.Clock)
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Display == nil {
		deps.Display = nopDisplay{}
	}

	return &Keeper{
		repo:      deps.Repository,
		clock:     deps.Clock,
		scheduler: deps.Scheduler,
		notifier:  deps.Notifier,
		display:   deps.Display,
		logger:    deps.Logger.With().Str("component", "timekeeper").Logger(),
		options:   options,
		newID:     uuid.NewString,
	}
}

// Init seeds the default state on first run.
func (keeper *Keeper) Init(ctx context.Context) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	seeded, err := keeper.repo.Seed(ctx, keeper.options.Defaults)
	if err != nil {
		return fmt.Errorf("seed state: %w", err)
	}
	if seeded {
		keeper.logger.Info().
			Int("focus_time", keeper.options.Defaults.FocusTime).
			Int("free_time", keeper.options.Defaults.FreeTime).
			Int("rest_time", keeper.options.Defaults.RestTime).
			Msg("initialized default state")
	}
	return nil
}

// Restore reconciles the persisted state after a process start: a running
// phase is re-armed with an immediate wake-up, a running phase without an
// alarm falls back to stopped, and a leftover alarm under stopped is removed.
func (keeper *Keeper) Restore(ctx context.Context) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	phase, err := keeper.repo.Phase(ctx)
	if err != nil {
		return fmt.Errorf("restore phase: %w", err)
	}
	alarm, err := keeper.repo.Alarm(ctx)
	if err != nil {
		keeper.logger.Warn().Err(err).Msg("unreadable alarm on restore; stopping")
		alarm = nil
	}

	switch {
	case !phase.Valid():
		keeper.logger.Warn().Str("phase", string(phase)).Msg("unknown persisted phase; stopping")
		return keeper.forceStopLocked(ctx)
	case phase == model.PhaseStopped:
		if alarm != nil {
			keeper.logger.Debug().Str("alarm_id", alarm.ID).Msg("removing stale alarm")
			if err := keeper.repo.SetAlarm(ctx, nil); err != nil {
				return fmt.Errorf("remove stale alarm: %w", err)
			}
		}
		keeper.display.ClearCountdown()
		return nil
	case alarm == nil || alarm.Phase != phase:
		keeper.logger.Warn().Str("phase", string(phase)).Msg("running phase has no alarm; stopping")
		return keeper.forceStopLocked(ctx)
	}

	remaining := alarm.RemainingMinutes(keeper.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	keeper.display.ShowCountdown(phase, remaining)
	keeper.scheduler.ArmOnce(0, keeper.wakeFunc(alarm.ID))
	keeper.logger.Info().
		Str("phase", string(phase)).
		Str("alarm_id", alarm.ID).
		Msg("restored running phase")
	return nil
}

// RequestTransition moves the timer to phase. Unknown phases and
// disallowed transitions are logged and leave the state untouched.
func (keeper *Keeper) RequestTransition(ctx context.Context, phase model.Phase) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.transitionLocked(ctx, phase)
}

// ToggleFocus starts focusing, or stops when already focusing.
func (keeper *Keeper) ToggleFocus(ctx context.Context) error {
	return keeper.toggle(ctx, model.PhaseFocusing)
}

// ToggleFreeTime starts free time, or stops when free time is running.
func (keeper *Keeper) ToggleFreeTime(ctx context.Context) error {
	return keeper.toggle(ctx, model.PhaseFreeTime)
}

func (keeper *Keeper) toggle(ctx context.Context, phase model.Phase) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	current, err := keeper.repo.Phase(ctx)
	if err != nil {
		return fmt.Errorf("read phase: %w", err)
	}
	if current == phase {
		return keeper.transitionLocked(ctx, model.PhaseStopped)
	}
	return keeper.transitionLocked(ctx, phase)
}

// ResetAll cancels any countdown and restores the first-run state.
func (keeper *Keeper) ResetAll(ctx context.Context) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	keeper.scheduler.Cancel()
	keeper.display.ClearCountdown()
	if err := keeper.repo.Reset(ctx, keeper.options.Defaults); err != nil {
		keeper.logger.Error().Err(err).Msg("reset failed")
		return fmt.Errorf("reset state: %w", err)
	}

	keeper.logger.Info().Msg("state reset")
	keeper.emit(SignalStateWasReset, model.PhaseStopped)
	return nil
}

// UpdateConfig persists new durations. They apply from the next phase start.
func (keeper *Keeper) UpdateConfig(ctx context.Context, config model.Config) error {
	if err := config.Validate(); err != nil {
		keeper.logger.Warn().Err(err).Msg("rejected configuration update")
		return err
	}

	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if err := keeper.repo.SetConfig(ctx, config); err != nil {
		return fmt.Errorf("update config: %w", err)
	}
	keeper.logger.Info().
		Int("focus_time", config.FocusTime).
		Int("free_time", config.FreeTime).
		Int("rest_time", config.RestTime).
		Msg("configuration updated")
	return nil
}

// AcknowledgeNotification handles a click on a completion notification by
// dismissing it and requesting the follow-up phase.
func (keeper *Keeper) AcknowledgeNotification(ctx context.Context, id model.NotificationID) error {
	target, ok := model.AcknowledgeTarget(id)
	if !ok {
		keeper.logger.Warn().Str("notification", string(id)).Msg("ignoring unknown notification")
		return fmt.Errorf("%w: %q", ErrUnknownNotification, id)
	}

	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if err := keeper.notifier.Dismiss(ctx, id); err != nil {
		keeper.logger.Warn().Err(err).Str("notification", string(id)).Msg("dismiss failed")
	}
	return keeper.transitionLocked(ctx, target)
}

// Snapshot reads the full persisted state.
func (keeper *Keeper) Snapshot(ctx context.Context) (model.Snapshot, error) {
	return keeper.repo.Snapshot(ctx, keeper.options.Defaults)
}

// Dispatch routes an inbound command. Unknown commands are logged and ignored.
func (keeper *Keeper) Dispatch(ctx context.Context, command Command) error {
	switch command.Type {
	case CommandChangePhase:
		return keeper.RequestTransition(ctx, command.Phase)
	case CommandReset:
		return keeper.ResetAll(ctx)
	case CommandUpdateConfig:
		return keeper.UpdateConfig(ctx, command.Config)
	case CommandNotificationClicked:
		return keeper.AcknowledgeNotification(ctx, command.NotificationID)
	}
	keeper.logger.Warn().Str("type", string(command.Type)).Msg("ignoring unknown command")
	return fmt.Errorf("%w: %q", ErrUnknownCommand, command.Type)
}

// Run processes commands until ctx is done or commands is closed. Command
// failures are logged; none of them stop the loop.
func (keeper *Keeper) Run(ctx context.Context, commands <-chan Command) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case command, ok := <-commands:
			if !ok {
				return nil
			}
			if err := keeper.Dispatch(ctx, command); err != nil {
				keeper.logger.Debug().Err(err).Str("type", string(command.Type)).Msg("command failed")
			}
		}
	}
}

// Subscribe registers a new observer channel.
func (keeper *Keeper) Subscribe(buffer int) <-chan Signal {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Signal, buffer)
	keeper.observersMu.Lock()
	keeper.observers = append(keeper.observers, ch)
	keeper.observersMu.Unlock()
	return ch
}

// Close cancels the pending wake-up and closes observer channels. The
// persisted state is left as is so the next process can restore it.
func (keeper *Keeper) Close() {
	keeper.mu.Lock()
	keeper.scheduler.Cancel()
	keeper.mu.Unlock()

	keeper.observersMu.Lock()
	observers := keeper.observers
	keeper.observers = nil
	keeper.observersMu.Unlock()

	for _, ch := range observers {
		close(ch)
	}
}

func (keeper *Keeper) transitionLocked(ctx context.Context, next model.Phase) error {
	if !next.Valid() {
		keeper.logger.Warn().Str("phase", string(next)).Msg("ignoring unknown phase")
		return fmt.Errorf("%w: %q", model.ErrUnknownPhase, next)
	}

	current, err := keeper.repo.Phase(ctx)
	if err != nil {
		return fmt.Errorf("read phase: %w", err)
	}
	if !current.Valid() {
		keeper.logger.Warn().Str("phase", string(current)).Msg("unknown persisted phase; treating as stopped")
		current = model.PhaseStopped
	}
	if !model.CanTransition(current, next) {
		keeper.logger.Warn().
			Str("from", string(current)).
			Str("to", string(next)).
			Msg("rejected phase transition")
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	keeper.logger.Info().Str("from", string(current)).Str("to", string(next)).Msg("phase transition")

	if err := keeper.repo.SetPhase(ctx, next); err != nil {
		return keeper.degradeLocked(ctx, fmt.Errorf("persist phase: %w", err))
	}
	keeper.scheduler.Cancel()

	switch next {
	case model.PhaseStopped:
		keeper.display.ClearCountdown()
		if err := keeper.repo.SetRemaining(ctx, nil); err != nil {
			return fmt.Errorf("clear remaining: %w", err)
		}
		if err := keeper.repo.SetAlarm(ctx, nil); err != nil {
			return fmt.Errorf("clear alarm: %w", err)
		}
	case model.PhaseResting:
		config, err := keeper.repo.Config(ctx, keeper.options.Defaults)
		if err != nil {
			return keeper.degradeLocked(ctx, fmt.Errorf("read config: %w", err))
		}
		if err := keeper.armLocked(ctx, next, config.RestTime, false); err != nil {
			return keeper.degradeLocked(ctx, err)
		}
	case model.PhaseFreeTime:
		counters, err := keeper.repo.Counters(ctx)
		if err != nil {
			return keeper.degradeLocked(ctx, fmt.Errorf("read counters: %w", err))
		}
		if err := keeper.armLocked(ctx, next, counters.FreeMinutesBalance, true); err != nil {
			return keeper.degradeLocked(ctx, err)
		}
	case model.PhaseFocusing:
		config, err := keeper.repo.Config(ctx, keeper.options.Defaults)
		if err != nil {
			return keeper.degradeLocked(ctx, fmt.Errorf("read config: %w", err))
		}
		if err := keeper.armLocked(ctx, next, config.FocusTime, false); err != nil {
			return keeper.degradeLocked(ctx, err)
		}
	}

	keeper.emit(SignalPhaseOrTimerChanged, next)
	return nil
}

// degradeLocked makes a best-effort attempt to leave the timer stopped after
// a failed transition and returns cause.
func (keeper *Keeper) degradeLocked(ctx context.Context, cause error) error {
	keeper.logger.Error().Err(cause).Msg("transition failed; falling back to stopped")
	if err := keeper.forceStopLocked(ctx); err != nil {
		keeper.logger.Error().Err(err).Msg("fallback to stopped failed")
	}
	return cause
}

func (keeper *Keeper) forceStopLocked(ctx context.Context) error {
	keeper.scheduler.Cancel()
	keeper.display.ClearCountdown()

	var errs []error
	if err := keeper.repo.SetPhase(ctx, model.PhaseStopped); err != nil {
		errs = append(errs, err)
	}
	if err := keeper.repo.SetRemaining(ctx, nil); err != nil {
		errs = append(errs, err)
	}
	if err := keeper.repo.SetAlarm(ctx, nil); err != nil {
		errs = append(errs, err)
	}
	keeper.emit(SignalPhaseOrTimerChanged, model.PhaseStopped)
	return errors.Join(errs...)
}

func (keeper *Keeper) emit(signalType SignalType, phase model.Phase) {
	signal := Signal{Type: signalType, Phase: phase, At: keeper.clock.Now()}

	keeper.observersMu.Lock()
	defer keeper.observersMu.Unlock()
	for _, ch := range keeper.observers {
		select {
		case ch <- signal:
		default:
		}
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, model.Notification) error { return nil }
func (nopNotifier) Dismiss(context.Context, model.NotificationID) error { return nil }

type nopDisplay struct{}

func (nopDisplay) ShowCountdown(model.Phase, int) {}
func (nopDisplay) ClearCountdown()               {}

package timekeeper

import (
	"context"
	"fmt"

	"focus/internal/core/model"
)

// armLocked records a fresh alarm for phase and schedules its first wake-up.
func (keeper *Keeper) armLocked(ctx context.Context, phase model.Phase, initialMinutes int, countsTowardBalance bool) error {
	if err := keeper.repo.SetRemaining(ctx, &initialMinutes); err != nil {
		return fmt.Errorf("persist remaining: %w", err)
	}

	alarm := &model.Alarm{
		ID:                          keeper.newID(),
		InitialDurationMinutes:      initialMinutes,
		StartTimestamp:              keeper.clock.Now().UTC(),
		Phase:                       phase,
		CountsTowardFreeTimeBalance: countsTowardBalance,
	}
	if err := keeper.repo.SetAlarm(ctx, alarm); err != nil {
		return fmt.Errorf("persist alarm: %w", err)
	}

	keeper.display.ShowCountdown(phase, clampMinutes(initialMinutes))
	keeper.scheduler.ArmOnce(keeper.options.WakeInterval, keeper.wakeFunc(alarm.ID))

	keeper.logger.Debug().
		Str("phase", string(phase)).
		Str("alarm_id", alarm.ID).
		Int("minutes", initialMinutes).
		Bool("counts_toward_balance", countsTowardBalance).
		Msg("countdown armed")
	return nil
}

func (keeper *Keeper) wakeFunc(alarmID string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), keeper.options.WakeTimeout)
		defer cancel()
		if err := keeper.Wake(ctx, alarmID); err != nil {
			keeper.logger.Error().Err(err).Str("alarm_id", alarmID).Msg("wake-up failed")
		}
	}
}

// Wake handles one scheduled wake-up for the alarm with alarmID. Remaining
// time is recomputed from the alarm's start timestamp, so missed wake-ups
// never accumulate drift. A wake-up whose alarm is gone or superseded does
// nothing. Free time overrun past zero is kept as a negative balance and
// paid back by the next focus credit.
func (keeper *Keeper) Wake(ctx context.Context, alarmID string) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	alarm, err := keeper.repo.Alarm(ctx)
	if err != nil {
		keeper.scheduler.ArmOnce(keeper.options.WakeInterval, keeper.wakeFunc(alarmID))
		return fmt.Errorf("read alarm: %w", err)
	}
	if alarm == nil {
		keeper.logger.Debug().Str("alarm_id", alarmID).Msg("wake-up without alarm; ignoring")
		return nil
	}
	if alarm.ID != alarmID {
		keeper.logger.Debug().
			Str("alarm_id", alarmID).
			Str("current_alarm_id", alarm.ID).
			Msg("stale wake-up; ignoring")
		return nil
	}

	keeper.scheduler.ArmOnce(keeper.options.WakeInterval, keeper.wakeFunc(alarm.ID))

	remaining := alarm.RemainingMinutes(keeper.clock.Now())
	if err := keeper.repo.SetRemaining(ctx, &remaining); err != nil {
		return fmt.Errorf("persist remaining: %w", err)
	}

	if alarm.CountsTowardFreeTimeBalance {
		if err := keeper.repo.SetFreeBalance(ctx, remaining); err != nil {
			return fmt.Errorf("persist free balance: %w", err)
		}
		keeper.emit(SignalCountersChanged, alarm.Phase)
	}

	if remaining <= 0 {
		keeper.display.ClearCountdown()
		keeper.scheduler.Cancel()
		return keeper.completeLocked(ctx, *alarm)
	}

	keeper.display.ShowCountdown(alarm.Phase, remaining)
	keeper.emit(SignalPhaseOrTimerChanged, alarm.Phase)
	return nil
}

func clampMinutes(minutes int) int {
	if minutes < 0 {
		return 0
	}
	return minutes
}

package timekeeper

import (
	"context"
	"fmt"

	"focus/internal/core/model"
)

// completeLocked finishes the phase described by alarm: it raises the
// phase's notification, stops the timer and, for focus, credits the
// counters. Only natural completion reaches this path, so a manual stop
// never accrues.
func (keeper *Keeper) completeLocked(ctx context.Context, alarm model.Alarm) error {
	keeper.logger.Info().
		Str("phase", string(alarm.Phase)).
		Int("minutes", alarm.InitialDurationMinutes).
		Msg("phase completed")

	if notification, ok := model.CompletionNotification(alarm.Phase); ok {
		keeper.raise(ctx, notification)
	} else {
		keeper.logger.Warn().Str("phase", string(alarm.Phase)).Msg("completed alarm has unknown phase")
	}

	if err := keeper.transitionLocked(ctx, model.PhaseStopped); err != nil {
		return fmt.Errorf("stop after completion: %w", err)
	}

	if alarm.Phase != model.PhaseFocusing {
		return nil
	}

	config, err := keeper.repo.Config(ctx, keeper.options.Defaults)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	counters, err := keeper.repo.Counters(ctx)
	if err != nil {
		return fmt.Errorf("read counters: %w", err)
	}
	counters.FocusMinutesAccrued += alarm.InitialDurationMinutes
	counters.FreeMinutesBalance += config.FreeTime
	if err := keeper.repo.SetCounters(ctx, counters); err != nil {
		return fmt.Errorf("accrue counters: %w", err)
	}

	keeper.logger.Info().
		Int("focus_minutes_accrued", counters.FocusMinutesAccrued).
		Int("free_minutes_balance", counters.FreeMinutesBalance).
		Msg("focus accrued")
	keeper.emit(SignalCountersChanged, model.PhaseStopped)
	return nil
}

// raise replaces any notification with the same ID. Delivery failures are
// logged; the cycle continues without the alert.
func (keeper *Keeper) raise(ctx context.Context, notification model.Notification) {
	if err := keeper.notifier.Dismiss(ctx, notification.ID); err != nil {
		keeper.logger.Debug().Err(err).Str("notification", string(notification.ID)).Msg("dismiss before raise failed")
	}
	if err := keeper.notifier.Notify(ctx, notification); err != nil {
		keeper.logger.Error().Err(err).Str("notification", string(notification.ID)).Msg("notification failed")
	}
}

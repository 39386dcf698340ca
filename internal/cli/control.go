package cli

import (
	"context"
	"fmt"

	"focus/internal/core/model"
	"focus/internal/core/timekeeper"
	"focus/internal/platform"
)

// controlHandler answers control messages from other processes.
func controlHandler(keeper *timekeeper.Keeper) platform.Handler {
	return func(ctx context.Context, message platform.Message) platform.Reply {
		if err := dispatchMessage(ctx, keeper, message); err != nil {
			return platform.Failure(err)
		}
		snapshot, err := keeper.Snapshot(ctx)
		if err != nil {
			return platform.Failure(err)
		}
		return platform.Success(&snapshot)
	}
}

func dispatchMessage(ctx context.Context, keeper *timekeeper.Keeper, message platform.Message) error {
	switch message.Type {
	case platform.MessageStatus:
		return nil
	case platform.MessageToggle:
		switch model.Phase(message.Phase) {
		case model.PhaseFocusing:
			return keeper.ToggleFocus(ctx)
		case model.PhaseFreeTime:
			return keeper.ToggleFreeTime(ctx)
		}
		return fmt.Errorf("%w: cannot toggle %q", model.ErrUnknownPhase, message.Phase)
	case platform.MessageUpdateConfig:
		if message.Config == nil {
			return fmt.Errorf("%w: update-config without config", model.ErrInvalidConfig)
		}
	}

	command := timekeeper.Command{
		Type:           timekeeper.CommandType(message.Type),
		Phase:          model.Phase(message.Phase),
		NotificationID: model.NotificationID(message.NotificationID),
	}
	if message.Config != nil {
		command.Config = *message.Config
	}
	return keeper.Dispatch(ctx, command)
}

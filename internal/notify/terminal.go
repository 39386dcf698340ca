package notify

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"focus/internal/core/model"
)

// Terminal prints completion alerts to a terminal and rings its bell.
type Terminal struct {
	writer io.Writer
	bell   bool
}

// NewTerminal creates a terminal notifier writing to stdout.
func NewTerminal(bell bool) *Terminal {
	return NewTerminalWithWriter(bell, os.Stdout)
}

// NewTerminalWithWriter creates a terminal notifier with a custom writer.
func NewTerminalWithWriter(bell bool, w io.Writer) *Terminal {
	return &Terminal{writer: w, bell: bell}
}

// Notify prints the alert.
func (terminal *Terminal) Notify(_ context.Context, notification model.Notification) error {
	if terminal.bell {
		if _, err := fmt.Fprint(terminal.writer, "\a"); err != nil {
			return fmt.Errorf("ring bell: %w", err)
		}
	}
	title := notificationColor(notification.ID).Sprint(notification.Title)
	if _, err := fmt.Fprintf(terminal.writer, "%s  %s\n", title, notification.Body); err != nil {
		return fmt.Errorf("print notification: %w", err)
	}
	return nil
}

// Dismiss is a no-op; printed lines cannot be withdrawn.
func (terminal *Terminal) Dismiss(context.Context, model.NotificationID) error {
	return nil
}

func notificationColor(id model.NotificationID) *color.Color {
	switch id {
	case model.NotificationFocus:
		return color.New(color.FgBlue, color.Bold)
	case model.NotificationFree:
		return color.New(color.FgGreen, color.Bold)
	case model.NotificationRest:
		return color.New(color.FgHiBlack, color.Bold)
	}
	return color.New(color.Bold)
}

// PhaseColor returns the terminal color used for phase.
func PhaseColor(phase model.Phase) *color.Color {
	switch phase {
	case model.PhaseFocusing:
		return color.New(color.FgBlue)
	case model.PhaseFreeTime:
		return color.New(color.FgGreen)
	case model.PhaseResting:
		return color.New(color.FgHiBlack)
	}
	return color.New(color.FgWhite)
}

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"focus/internal/core/model"
)

func addPhaseCommands(root *cobra.Command, a *app) {
	root.AddCommand(
		&cobra.Command{
			Use:       "start <focus|rest|free>",
			Short:     "Start a phase",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"focus", "rest", "free"},
			RunE: func(cmd *cobra.Command, args []string) error {
				phase, err := model.ParsePhase(args[0])
				if err != nil {
					return err
				}
				return a.withClient(cmd, func(ctx context.Context, client Client) error {
					return client.RequestTransition(ctx, phase)
				})
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the running phase",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withClient(cmd, func(ctx context.Context, client Client) error {
					return client.RequestTransition(ctx, model.PhaseStopped)
				})
			},
		},
		&cobra.Command{
			Use:       "toggle <focus|free>",
			Short:     "Start a phase, or stop it when it is already running",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"focus", "free"},
			RunE: func(cmd *cobra.Command, args []string) error {
				phase, err := model.ParsePhase(args[0])
				if err != nil {
					return err
				}
				return a.withClient(cmd, func(ctx context.Context, client Client) error {
					switch phase {
					case model.PhaseFocusing:
						return client.ToggleFocus(ctx)
					case model.PhaseFreeTime:
						return client.ToggleFreeTime(ctx)
					}
					return fmt.Errorf("%w: only focus and free can be toggled", model.ErrUnknownPhase)
				})
			},
		},
		&cobra.Command{
			Use:       "ack <focus|rest|free>",
			Short:     "Acknowledge a completion notification and start the next phase",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"focus", "rest", "free"},
			RunE: func(cmd *cobra.Command, args []string) error {
				id := model.NotificationID(strings.ToLower(strings.TrimSpace(args[0])))
				return a.withClient(cmd, func(ctx context.Context, client Client) error {
					return client.AcknowledgeNotification(ctx, id)
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Stop the timer and restore the first-run state",
			Long:  "Stop the timer and restore the first-run state. Accrued focus minutes, the free time balance and custom durations are lost.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withClient(cmd, func(ctx context.Context, client Client) error {
					return client.ResetAll(ctx)
				})
			},
		},
	)
}

// withClient runs fn against the timer and prints the resulting state.
func (a *app) withClient(cmd *cobra.Command, fn func(context.Context, Client) error) error {
	ctx := cmd.Context()
	client, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := fn(ctx, client); err != nil {
		return err
	}
	snapshot, err := client.Snapshot(ctx)
	if err != nil {
		return err
	}
	printSnapshot(cmd.OutOrStdout(), snapshot)
	return nil
}

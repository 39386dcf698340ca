package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"focus/internal/core/model"
	"focus/internal/notify"
	"focus/internal/ui/status"
)

func addStatusCommand(root *cobra.Command, a *app) {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current phase, countdown and counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			snapshot, err := client.Snapshot(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(snapshot)
			}
			printSnapshot(cmd.OutOrStdout(), snapshot)
			fmt.Fprintf(cmd.OutOrStdout(), "Durations: focus %s, free %s per focus, rest %s\n",
				status.Minutes(snapshot.Config.FocusTime),
				status.Minutes(snapshot.Config.FreeTime),
				status.Minutes(snapshot.Config.RestTime))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full state as JSON")
	root.AddCommand(cmd)
}

func printSnapshot(w io.Writer, snapshot model.Snapshot) {
	fmt.Fprintln(w, notify.PhaseColor(snapshot.Phase).Sprint(status.Line(snapshot)))
	fmt.Fprintln(w, status.Counters(snapshot.Counters))
}

package cli

import (
	"os"

	"github.com/spf13/cobra"

	"focus/internal/ui/watch"
)

func addWatchCommand(root *cobra.Command, a *app) {
	root.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Follow the timer in a live terminal view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			cfg := watch.DefaultConfig()
			cfg.BellEnabled = a.cfg.Notifications.Bell
			cfg.BellWriter = os.Stdout
			return watch.Run(ctx, client, client, cfg)
		},
	})
}

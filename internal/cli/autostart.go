package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"focus/internal/platform"
)

func addAutostartCommand(root *cobra.Command, a *app) {
	autostart := platform.NewAutostart()
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage starting the timer at login",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "enable",
			Short: "Start the timer at login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				execPath, err := os.Executable()
				if err != nil {
					return fmt.Errorf("locate executable: %w", err)
				}
				if err := autostart.Enable(platform.Launch{AppName: AppName, ExecPath: execPath, Args: []string{"run"}}); err != nil {
					return err
				}
				a.logger.Info().Str("exec", execPath).Msg("autostart enabled")
				fmt.Fprintln(cmd.OutOrStdout(), "Autostart enabled")
				return nil
			},
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Stop starting the timer at login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := autostart.Disable(AppName); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Autostart disabled")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether the timer starts at login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				enabled, err := autostart.Enabled(AppName)
				if err != nil {
					return err
				}
				state := "disabled"
				if enabled {
					state = "enabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Autostart %s\n", state)
				return nil
			},
		},
	)
	root.AddCommand(cmd)
}

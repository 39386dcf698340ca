package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"focus/internal/config"
	"focus/internal/core/model"
	"focus/internal/ui/preferences"
)

// ErrNotInteractive indicates a prompt was requested without a terminal.
var ErrNotInteractive = errors.New("interactive editing needs a terminal")

// durationKeys are the timer durations kept in the state store rather than
// in the settings file.
var durationKeys = []string{"focus_time", "free_time", "rest_time"}

// configView is what 'config show' prints.
type configView struct {
	Durations model.Config   `yaml:"durations"`
	Settings  *config.Config `yaml:"settings"`
	Path      string         `yaml:"path"`
}

func addConfigCommand(root *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change timer durations and settings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the timer durations and the effective settings",
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
				out, err := yaml.Marshal(configView{Durations: snapshot.Config, Settings: a.cfg, Path: a.cfgPath})
				if err != nil {
					return fmt.Errorf("encode config: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change a timer duration or a settings key",
			Long: fmt.Sprintf(`Change a timer duration or a settings key.

Durations (%s) take whole minutes and apply from the next phase.
Settings keys are written to the settings file:
  %s`, strings.Join(durationKeys, ", "), strings.Join(config.Keys(), "\n  ")),
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				key := strings.ToLower(strings.TrimSpace(args[0]))
				if isDurationKey(key) {
					return a.setDuration(cmd, key, args[1])
				}
				if err := config.Set(a.logger.WithContext(cmd.Context()), a.cfgPath, key, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s set to %s in %s\n", key, args[1], a.cfgPath)
				return nil
			},
		},
		&cobra.Command{
			Use:   "edit",
			Short: "Edit the timer durations interactively",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return ErrNotInteractive
				}
				return a.withClient(cmd, func(ctx context.Context, client Client) error {
					snapshot, err := client.Snapshot(ctx)
					if err != nil {
						return err
					}
					next, err := editDurations(snapshot.Config)
					if err != nil {
						return err
					}
					return client.UpdateConfig(ctx, next)
				})
			},
		},
	)
	root.AddCommand(cmd)
}

func (a *app) setDuration(cmd *cobra.Command, key, value string) error {
	return a.withClient(cmd, func(ctx context.Context, client Client) error {
		snapshot, err := client.Snapshot(ctx)
		if err != nil {
			return err
		}
		fields := preferences.FieldsFrom(snapshot.Config)
		switch key {
		case "focus_time":
			fields.FocusTime = value
		case "free_time":
			fields.FreeTime = value
		case "rest_time":
			fields.RestTime = value
		}
		next, err := fields.Parse()
		if err != nil {
			return err
		}
		return client.UpdateConfig(ctx, next)
	})
}

func isDurationKey(key string) bool {
	for _, known := range durationKeys {
		if key == known {
			return true
		}
	}
	return false
}

// editDurations prompts for the three durations, starting from current.
func editDurations(current model.Config) (model.Config, error) {
	fields := preferences.FieldsFrom(current)
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Focus time (minutes)").Value(&fields.FocusTime).Validate(validateMinutes),
		huh.NewInput().Title("Free time earned per focus (minutes)").Value(&fields.FreeTime).Validate(validateMinutes),
		huh.NewInput().Title("Rest time (minutes)").Value(&fields.RestTime).Validate(validateMinutes),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return model.Config{}, fmt.Errorf("edit canceled: %w", err)
		}
		return model.Config{}, fmt.Errorf("edit durations: %w", err)
	}
	return fields.Parse()
}

func validateMinutes(value string) error {
	minutes, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || minutes <= 0 {
		return errors.New("enter a positive whole number of minutes")
	}
	return nil
}

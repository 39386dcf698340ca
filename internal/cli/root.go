// Package cli provides the command-line interface for focus.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"focus/internal/clock"
	"focus/internal/config"
	"focus/internal/logging"
	"focus/internal/platform"
)

// AppName names the application for the control address, autostart and
// notifications.
const AppName = "Focus"

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
}

// app is the state shared by every command of one invocation.
type app struct {
	flags   GlobalFlags
	cfg     *config.Config
	cfgPath string
	logger  zerolog.Logger
	closer  io.Closer

	// address is the control channel of the running instance.
	address string
	// logConsole overrides where log lines go; nil means stderr.
	logConsole io.Writer
	// requestTimeout bounds a single control request.
	requestTimeout time.Duration
	// clock is the time source of the fallback keeper.
	clock clock.Clock
}

func newApp() *app {
	return &app{
		address:        platform.AddressFor(AppName),
		requestTimeout: 5 * time.Second,
		clock:          clock.Real{},
	}
}

// newRootCmd creates the root command and its subcommands.
func newRootCmd(a *app, info BuildInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Focus, rest and free-time timer",
		Long: `focus keeps a persistent focus / rest / free-time countdown.

Completed focus phases accrue focus minutes and earn free time, which is
spent down while free time runs. The timer lives in a background instance
started with 'focus run'; every other command talks to it, or works on the
stored state directly when it is not running.`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.closer != nil {
				_ = a.closer.Close()
			}
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&a.flags.ConfigPath, "config", "", "settings file (default is the user config dir)")
	cmd.PersistentFlags().BoolVarP(&a.flags.Verbose, "verbose", "v", false, "enable debug logging")

	addRunCommand(cmd, a)
	addPhaseCommands(cmd, a)
	addStatusCommand(cmd, a)
	addConfigCommand(cmd, a)
	addWatchCommand(cmd, a)
	addAutostartCommand(cmd, a)
	return cmd
}

func (a *app) setup(ctx context.Context) error {
	path := a.flags.ConfigPath
	if path == "" {
		defaultPath, err := config.Path()
		if err != nil {
			return err
		}
		path = defaultPath
	}

	cfg, err := config.LoadFile(ctx, path)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Verbose: a.flags.Verbose,
		File:    cfg.Log.File,
		Console: a.logConsole,
	})
	if logger == nil {
		return err
	}
	if err != nil {
		logger.Warn().Err(err).Msg("log file unavailable; logging to console only")
	}

	a.cfg = cfg
	a.cfgPath = path
	a.logger = logger.Logger
	a.closer = logger
	return nil
}

func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the provided context and build info.
func Execute(ctx context.Context, info BuildInfo) error {
	return newRootCmd(newApp(), info).ExecuteContext(ctx)
}

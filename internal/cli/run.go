package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"focus/internal/core/model"
	"focus/internal/core/timekeeper"
	"focus/internal/notify"
	"focus/internal/platform"
	"focus/internal/storage"
	"focus/internal/ui/preferences"
	"focus/internal/ui/tray"
	"focus/resources"
)

// ErrTrayUnsupported indicates the desktop has no system tray.
var ErrTrayUnsupported = errors.New("system tray unsupported on this platform")

func addRunCommand(root *cobra.Command, a *app) {
	var headless bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the timer in the system tray",
		Long: `Run the timer. Only one instance runs at a time; it restores a phase that
was running when the previous instance stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if headless {
				return a.runHeadless(cmd.Context())
			}
			return a.runTray(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false, "run without the tray, alerting in the terminal")
	root.AddCommand(cmd)
}

// daemon is a running timer instance.
type daemon struct {
	guard  *platform.InstanceGuard
	store  storage.Store
	keeper *timekeeper.Keeper
	multi  *notify.Multi
}

func (a *app) startDaemon(ctx context.Context, sinks []notify.Sink, display timekeeper.Display) (*daemon, error) {
	guard, err := platform.Listen(a.address, a.logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", AppName, err)
	}

	store, err := storage.Open(ctx, a.cfg.StorageOptions())
	if err != nil {
		_ = guard.Release()
		return nil, err
	}

	multi := notify.NewMulti(a.logger, sinks...)
	keeper := timekeeper.New(timekeeper.Dependencies{
		Repository: storage.NewRepository(store),
		Notifier:   multi,
		Display:    display,
		Logger:     a.logger,
	}, a.keeperConfig())

	if err := keeper.Init(ctx); err != nil {
		_ = store.Close()
		_ = guard.Release()
		return nil, err
	}
	if err := keeper.Restore(ctx); err != nil {
		a.logger.Error().Err(err).Msg("restore failed")
	}

	a.logger.Info().
		Str("address", guard.Address()).
		Str("storage", a.cfg.Storage.Driver).
		Msg("timer running")
	return &daemon{guard: guard, store: store, keeper: keeper, multi: multi}, nil
}

// serve runs the control channel and forwards keeper signals to onSignal
// until ctx is done.
func (d *daemon) serve(ctx context.Context, onSignal func(timekeeper.Signal)) error {
	signals := d.keeper.Subscribe(16)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := d.guard.Serve(gctx, controlHandler(d.keeper))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case signal, ok := <-signals:
				if !ok {
					return nil
				}
				if onSignal != nil {
					onSignal(signal)
				}
			}
		}
	})
	return g.Wait()
}

func (d *daemon) close() {
	d.keeper.Close()
	_ = d.guard.Release()
	_ = d.store.Close()
}

func (a *app) runHeadless(ctx context.Context) error {
	sinks := []notify.Sink{notify.NewTerminal(a.cfg.Notifications.Bell)}
	d, err := a.startDaemon(ctx, sinks, nil)
	if err != nil {
		return err
	}
	defer d.close()

	return d.serve(ctx, func(signal timekeeper.Signal) {
		a.logger.Debug().Str("signal", string(signal.Type)).Str("phase", string(signal.Phase)).Msg("state changed")
	})
}

func (a *app) runTray(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fyneApp := fyneapp.NewWithID("app.focus.timer")
	fyneApp.SetIcon(resources.PhaseIcon(model.PhaseFocusing))
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		return ErrTrayUnsupported
	}

	trayWindow := fyneApp.NewWindow(AppName)
	trayWindow.SetContent(widget.NewLabel("Focus is running in the system tray."))
	trayWindow.SetCloseIntercept(trayWindow.Hide)
	desktopApp.SetSystemTrayWindow(trayWindow)

	var (
		keeper      *timekeeper.Keeper
		prefsWindow *preferences.Window
	)
	act := func(name string, fn func(context.Context) error) {
		go func() {
			if err := fn(ctx); err != nil {
				a.logger.Warn().Err(err).Str("action", name).Msg("tray action failed")
			}
		}()
	}

	trayManager := tray.New(desktopApp, tray.Callbacks{
		OnToggleFocus: func() { act("toggle focus", keeper.ToggleFocus) },
		OnToggleFree:  func() { act("toggle free time", keeper.ToggleFreeTime) },
		OnStop: func() {
			act("stop", func(ctx context.Context) error {
				return keeper.RequestTransition(ctx, model.PhaseStopped)
			})
		},
		OnAcknowledge: func(id model.NotificationID) {
			act("acknowledge", func(ctx context.Context) error {
				return keeper.AcknowledgeNotification(ctx, id)
			})
		},
		OnPreferences: func() {
			if snapshot, err := keeper.Snapshot(ctx); err == nil {
				prefsWindow.Update(snapshot.Config)
			}
			prefsWindow.Show()
		},
		OnReset: func() { act("reset", keeper.ResetAll) },
		OnQuit:  func() { fyneApp.Quit() },
	})

	var sinks []notify.Sink
	if a.cfg.Notifications.Desktop {
		sinks = append(sinks, notify.NewDesktop(fyneApp))
	}
	if a.cfg.Notifications.Bell {
		sinks = append(sinks, notify.NewTerminal(true))
	}

	d, err := a.startDaemon(ctx, sinks, trayManager)
	if err != nil {
		return err
	}
	defer d.close()
	keeper = d.keeper
	d.multi.OnChange(trayManager.SetPending)

	snapshot, err := keeper.Snapshot(ctx)
	if err != nil {
		return err
	}
	trayManager.Update(snapshot)

	prefsWindow = preferences.New(fyneApp, snapshot.Config, func(config model.Config) error {
		return keeper.UpdateConfig(ctx, config)
	})

	refresh := func(timekeeper.Signal) {
		snapshot, err := keeper.Snapshot(ctx)
		if err != nil {
			a.logger.Warn().Err(err).Msg("refresh tray failed")
			return
		}
		trayManager.Update(snapshot)
	}

	served := make(chan error, 1)
	var startOnce sync.Once
	fyneApp.Lifecycle().SetOnStarted(func() {
		startOnce.Do(func() {
			trayManager.Start()
			go func() {
				served <- d.serve(ctx, refresh)
				if ctx.Err() == nil {
					fyne.Do(fyneApp.Quit)
				}
			}()
		})
	})

	fyneApp.Run()
	cancel()
	startOnce.Do(func() { served <- nil })
	return <-served
}

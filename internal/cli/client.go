package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focus/internal/clock"
	"focus/internal/core/model"
	"focus/internal/core/timekeeper"
	"focus/internal/platform"
	"focus/internal/storage"
)

// Client performs timer operations on behalf of a command.
type Client interface {
	Snapshot(ctx context.Context) (model.Snapshot, error)
	RequestTransition(ctx context.Context, phase model.Phase) error
	ToggleFocus(ctx context.Context) error
	ToggleFreeTime(ctx context.Context) error
	ResetAll(ctx context.Context) error
	UpdateConfig(ctx context.Context, config model.Config) error
	AcknowledgeNotification(ctx context.Context, id model.NotificationID) error
	Close() error
}

// connect reaches the running instance, or opens the store directly when
// none is listening.
func (a *app) connect(ctx context.Context) (Client, error) {
	remote := &remoteClient{address: a.address, timeout: a.requestTimeout}
	_, err := remote.Snapshot(ctx)
	if err == nil {
		a.logger.Debug().Str("address", a.address).Msg("using running instance")
		return remote, nil
	}
	if !errors.Is(err, platform.ErrNotRunning) {
		return nil, err
	}

	a.logger.Debug().Msg("no running instance; using the state store directly")
	return a.openLocal(ctx)
}

func (a *app) openLocal(ctx context.Context) (*localClient, error) {
	store, err := storage.Open(ctx, a.cfg.StorageOptions())
	if err != nil {
		return nil, err
	}
	keeper := timekeeper.New(timekeeper.Dependencies{
		Repository: storage.NewRepository(store),
		Clock:      a.clock,
		Scheduler:  heldScheduler{},
		Logger:     a.logger,
	}, a.keeperConfig())
	if err := keeper.Init(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return &localClient{Keeper: keeper, store: store, clock: a.clock}, nil
}

func (a *app) keeperConfig() timekeeper.Config {
	return timekeeper.Config{
		WakeInterval: a.cfg.Timer.WakeInterval,
		WakeTimeout:  a.cfg.Timer.WakeTimeout,
		Defaults:     a.cfg.Defaults.Model(),
	}
}

// heldScheduler never fires. Only 'focus run' drives the countdown, so a
// phase started without a running instance is never completed, and its
// notification never dropped, by a short-lived command or 'focus watch'.
// The running instance picks the alarm up through Restore.
type heldScheduler struct{}

func (heldScheduler) ArmOnce(time.Duration, func()) {}
func (heldScheduler) Cancel()                       {}

// localClient drives a Keeper over the shared store. The countdown it
// starts is resumed by the next 'focus run'.
type localClient struct {
	*timekeeper.Keeper
	store storage.Store
	clock clock.Clock
}

// Snapshot reads the stored state and projects the remaining minutes from
// the alarm, since no wake-up refreshes them while no instance runs.
func (client *localClient) Snapshot(ctx context.Context) (model.Snapshot, error) {
	snapshot, err := client.Keeper.Snapshot(ctx)
	if err != nil {
		return snapshot, err
	}
	if snapshot.Phase.Timed() && snapshot.Alarm != nil && snapshot.Alarm.Phase == snapshot.Phase {
		remaining := snapshot.Alarm.RemainingMinutes(client.clock.Now())
		snapshot.RemainingMinutes = &remaining
	}
	return snapshot, nil
}

func (client *localClient) Close() error {
	client.Keeper.Close()
	return client.store.Close()
}

type remoteClient struct {
	address string
	timeout time.Duration
}

func (client *remoteClient) send(ctx context.Context, message platform.Message) (platform.Reply, error) {
	if client.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, client.timeout)
		defer cancel()
	}
	reply, err := platform.Send(ctx, client.address, message)
	if err != nil {
		return platform.Reply{}, err
	}
	if err := reply.Err(); err != nil {
		return reply, fmt.Errorf("%s: %w", message.Type, err)
	}
	return reply, nil
}

func (client *remoteClient) Snapshot(ctx context.Context) (model.Snapshot, error) {
	reply, err := client.send(ctx, platform.Message{Type: platform.MessageStatus})
	if err != nil {
		return model.Snapshot{}, err
	}
	if reply.Snapshot == nil {
		return model.Snapshot{}, errors.New("status reply without state")
	}
	return *reply.Snapshot, nil
}

func (client *remoteClient) RequestTransition(ctx context.Context, phase model.Phase) error {
	_, err := client.send(ctx, platform.Message{Type: platform.MessageChangeState, Phase: string(phase)})
	return err
}

func (client *remoteClient) ToggleFocus(ctx context.Context) error {
	_, err := client.send(ctx, platform.Message{Type: platform.MessageToggle, Phase: string(model.PhaseFocusing)})
	return err
}

func (client *remoteClient) ToggleFreeTime(ctx context.Context) error {
	_, err := client.send(ctx, platform.Message{Type: platform.MessageToggle, Phase: string(model.PhaseFreeTime)})
	return err
}

func (client *remoteClient) ResetAll(ctx context.Context) error {
	_, err := client.send(ctx, platform.Message{Type: platform.MessageClear})
	return err
}

func (client *remoteClient) UpdateConfig(ctx context.Context, config model.Config) error {
	_, err := client.send(ctx, platform.Message{Type: platform.MessageUpdateConfig, Config: &config})
	return err
}

func (client *remoteClient) AcknowledgeNotification(ctx context.Context, id model.NotificationID) error {
	_, err := client.send(ctx, platform.Message{Type: platform.MessageNotificationClicked, NotificationID: string(id)})
	return err
}

func (client *remoteClient) Close() error {
	return nil
}

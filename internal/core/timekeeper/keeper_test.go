package timekeeper_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focus/internal/clock"
	"focus/internal/core/model"
	"focus/internal/core/timekeeper"
	"focus/internal/storage"
	"focus/internal/testutil"
)

var start = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu        sync.Mutex
	shown     []model.Notification
	dismissed []model.NotificationID
	err       error
}

func (notifier *recordingNotifier) Notify(_ context.Context, notification model.Notification) error {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.shown = append(notifier.shown, notification)
	return notifier.err
}

func (notifier *recordingNotifier) Dismiss(_ context.Context, id model.NotificationID) error {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.dismissed = append(notifier.dismissed, id)
	return nil
}

func (notifier *recordingNotifier) ids() []model.NotificationID {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	ids := make([]model.NotificationID, 0, len(notifier.shown))
	for _, notification := range notifier.shown {
		ids = append(ids, notification.ID)
	}
	return ids
}

type recordingDisplay struct {
	mu      sync.Mutex
	visible bool
	phase   model.Phase
	minutes int
}

func (display *recordingDisplay) ShowCountdown(phase model.Phase, minutes int) {
	display.mu.Lock()
	defer display.mu.Unlock()
	display.visible = true
	display.phase = phase
	display.minutes = minutes
}

func (display *recordingDisplay) ClearCountdown() {
	display.mu.Lock()
	defer display.mu.Unlock()
	display.visible = false
	display.minutes = 0
}

func (display *recordingDisplay) badge() (int, bool) {
	display.mu.Lock()
	defer display.mu.Unlock()
	return display.minutes, display.visible
}

var errBackend = errors.New("backend down")

// failingStore fails writes that touch failKey while armed.
type failingStore struct {
	*storage.MemoryStore
	mu      sync.Mutex
	failKey string
}

func (store *failingStore) fail(key string) {
	store.mu.Lock()
	store.failKey = key
	store.mu.Unlock()
}

func (store *failingStore) Set(ctx context.Context, values map[string][]byte) error {
	store.mu.Lock()
	failKey := store.failKey
	store.mu.Unlock()
	if _, ok := values[failKey]; ok && failKey != "" {
		return errBackend
	}
	return store.MemoryStore.Set(ctx, values)
}

type harness struct {
	keeper   *timekeeper.Keeper
	repo     *storage.Repository
	clock    *testutil.FakeClock
	notifier *recordingNotifier
	display  *recordingDisplay
}

func newHarness(t *testing.T, store storage.Store, config model.Config) *harness {
	t.Helper()

	fake := testutil.NewFakeClock(start)
	repo := storage.NewRepository(store)
	notifier := &recordingNotifier{}
	display := &recordingDisplay{}
	keeper := timekeeper.New(timekeeper.Dependencies{
		Repository: repo,
		Clock:      fake,
		Scheduler:  clock.NewScheduler(fake),
		Notifier:   notifier,
		Display:    display,
		Logger:     zerolog.Nop(),
	}, timekeeper.Config{Defaults: config})
	require.NoError(t, keeper.Init(context.Background()))
	t.Cleanup(keeper.Close)

	return &harness{keeper: keeper, repo: repo, clock: fake, notifier: notifier, display: display}
}

func (h *harness) snapshot(t *testing.T) model.Snapshot {
	t.Helper()
	snapshot, err := h.keeper.Snapshot(context.Background())
	require.NoError(t, err)
	return snapshot
}

func remaining(t *testing.T, snapshot model.Snapshot) int {
	t.Helper()
	require.NotNil(t, snapshot.RemainingMinutes)
	return *snapshot.RemainingMinutes
}

func drain(ch <-chan timekeeper.Signal) []timekeeper.SignalType {
	var types []timekeeper.SignalType
	for {
		select {
		case signal := <-ch:
			types = append(types, signal.Type)
		default:
			return types
		}
	}
}

func shortConfig() model.Config {
	return model.Config{FocusTime: 25, FreeTime: 5, RestTime: 5}
}

func TestInitSeedsDefaults(t *testing.T) {
	h := newHarness(t, storage.NewMemoryStore(), model.DefaultConfig())

	snapshot := h.snapshot(t)
	assert.Equal(t, model.PhaseStopped, snapshot.Phase)
	assert.Nil(t, snapshot.RemainingMinutes)
	assert.Nil(t, snapshot.Alarm)
	assert.Equal(t, model.Counters{}, snapshot.Counters)
	assert.Equal(t, model.Config{FocusTime: 60, FreeTime: 15, RestTime: 10}, snapshot.Config)
}

func TestFocusCycleAccruesOnCompletion(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())
	signals := h.keeper.Subscribe(256)

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFocusing))
	snapshot := h.snapshot(t)
	assert.Equal(t, model.PhaseFocusing, snapshot.Phase)
	assert.Equal(t, 25, remaining(t, snapshot))
	require.NotNil(t, snapshot.Alarm)
	assert.Equal(t, 25, snapshot.Alarm.InitialDurationMinutes)
	assert.False(t, snapshot.Alarm.CountsTowardFreeTimeBalance)
	minutes, visible := h.display.badge()
	assert.True(t, visible)
	assert.Equal(t, 25, minutes)

	h.clock.Advance(10 * time.Minute)
	assert.Equal(t, 15, remaining(t, h.snapshot(t)))
	minutes, _ = h.display.badge()
	assert.Equal(t, 15, minutes)
	assert.Empty(t, h.notifier.ids())

	h.clock.Advance(15 * time.Minute)
	snapshot = h.snapshot(t)
	assert.Equal(t, model.PhaseStopped, snapshot.Phase)
	assert.Nil(t, snapshot.RemainingMinutes)
	assert.Nil(t, snapshot.Alarm)
	assert.Equal(t, model.Counters{FocusMinutesAccrued: 25, FreeMinutesBalance: 5}, snapshot.Counters)
	assert.Equal(t, []model.NotificationID{model.NotificationFocus}, h.notifier.ids())
	_, visible = h.display.badge()
	assert.False(t, visible)
	assert.Zero(t, h.clock.Pending())

	types := drain(signals)
	assert.Contains(t, types, timekeeper.SignalPhaseOrTimerChanged)
	assert.Equal(t, timekeeper.SignalCountersChanged, types[len(types)-1])
}

func TestManualStopDoesNotAccrue(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFocusing))
	h.clock.Advance(24 * time.Minute)
	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseStopped))

	snapshot := h.snapshot(t)
	assert.Equal(t, model.PhaseStopped, snapshot.Phase)
	assert.Equal(t, model.Counters{}, snapshot.Counters)
	assert.Empty(t, h.notifier.ids())

	h.clock.Advance(10 * time.Minute)
	assert.Equal(t, model.PhaseStopped, h.snapshot(t).Phase)
	assert.Empty(t, h.notifier.ids())
}

func TestFreeTimeSpendsBalance(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())
	require.NoError(t, h.repo.SetCounters(ctx, model.Counters{FocusMinutesAccrued: 40, FreeMinutesBalance: 3}))

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFreeTime))
	snapshot := h.snapshot(t)
	require.NotNil(t, snapshot.Alarm)
	assert.True(t, snapshot.Alarm.CountsTowardFreeTimeBalance)
	assert.Equal(t, 3, remaining(t, snapshot))

	h.clock.Advance(time.Minute)
	snapshot = h.snapshot(t)
	assert.Equal(t, 2, remaining(t, snapshot))
	assert.Equal(t, 2, snapshot.Counters.FreeMinutesBalance)

	h.clock.Advance(2 * time.Minute)
	snapshot = h.snapshot(t)
	assert.Equal(t, model.PhaseStopped, snapshot.Phase)
	assert.Equal(t, model.Counters{FocusMinutesAccrued: 40, FreeMinutesBalance: 0}, snapshot.Counters)
	assert.Equal(t, []model.NotificationID{model.NotificationFree}, h.notifier.ids())
}

func TestStoppingFreeTimeKeepsUnspentBalance(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())
	require.NoError(t, h.repo.SetCounters(ctx, model.Counters{FreeMinutesBalance: 10}))

	require.NoError(t, h.keeper.ToggleFreeTime(ctx))
	h.clock.Advance(4 * time.Minute)
	require.NoError(t, h.keeper.ToggleFreeTime(ctx))

	snapshot := h.snapshot(t)
	assert.Equal(t, model.PhaseStopped, snapshot.Phase)
	assert.Equal(t, 6, snapshot.Counters.FreeMinutesBalance)
}

func TestFreeTimeWithEmptyBalanceEndsOnFirstWake(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFreeTime))
	assert.Equal(t, 0, remaining(t, h.snapshot(t)))

	h.clock.Advance(time.Minute)
	snapshot := h.snapshot(t)
	assert.Equal(t, model.PhaseStopped, snapshot.Phase)
	assert.Equal(t, -1, snapshot.Counters.FreeMinutesBalance)
	assert.Equal(t, []model.NotificationID{model.NotificationFree}, h.notifier.ids())
}

func TestFreeTimeOverrunIsRepaidByNextFocus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())
	require.NoError(t, h.repo.SetCounters(ctx, model.Counters{FreeMinutesBalance: 3}))

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFreeTime))
	h.clock.Jump(10 * time.Minute)
	h.clock.FireDue()

	snapshot := h.snapshot(t)
	assert.Equal(t, model.PhaseStopped, snapshot.Phase)
	assert.Equal(t, -7, snapshot.Counters.FreeMinutesBalance)
	assert.Equal(t, []model.NotificationID{model.NotificationFree}, h.notifier.ids())

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFocusing))
	h.clock.Advance(25 * time.Minute)

	snapshot = h.snapshot(t)
	assert.Equal(t, model.Counters{FocusMinutesAccrued: 25, FreeMinutesBalance: -2}, snapshot.Counters)
}

func TestFreeTimeWithDebtEndsOnFirstWake(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())
	require.NoError(t, h.repo.SetCounters(ctx, model.Counters{FreeMinutesBalance: -2}))

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFreeTime))
	minutes, visible := h.display.badge()
	assert.True(t, visible)
	assert.Zero(t, minutes)

	h.clock.Advance(time.Minute)
	snapshot := h.snapshot(t)
	assert.Equal(t, model.PhaseStopped, snapshot.Phase)
	assert.Equal(t, -3, snapshot.Counters.FreeMinutesBalance)
}

func TestRemainingNeverIncreasesBetweenWakeUps(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFocusing))
	previous := remaining(t, h.snapshot(t))
	observed := 0
	for step := 0; step < 40; step++ {
		if step == 10 {
			h.clock.Jump(3 * time.Minute)
			h.clock.FireDue()
		} else {
			h.clock.Advance(time.Minute)
		}
		snapshot := h.snapshot(t)
		if snapshot.Phase != model.PhaseFocusing {
			break
		}
		current := remaining(t, snapshot)
		assert.LessOrEqual(t, current, previous, "step %d", step)
		previous = current
		observed++
	}
	assert.Greater(t, observed, 10)
	assert.Equal(t, model.PhaseStopped, h.snapshot(t).Phase)
}

func TestRestCompletesWithoutAccrual(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseResting))
	assert.Equal(t, 5, remaining(t, h.snapshot(t)))

	h.clock.Advance(5 * time.Minute)
	snapshot := h.snapshot(t)
	assert.Equal(t, model.PhaseStopped, snapshot.Phase)
	assert.Equal(t, model.Counters{}, snapshot.Counters)
	assert.Equal(t, []model.NotificationID{model.NotificationRest}, h.notifier.ids())
}

func TestMissedWakeUpsDoNotDrift(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), model.Config{FocusTime: 10, FreeTime: 5, RestTime: 5})

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFocusing))

	h.clock.Jump(7 * time.Minute)
	h.clock.FireDue()
	assert.Equal(t, 3, remaining(t, h.snapshot(t)))

	h.clock.Jump(30 * time.Minute)
	h.clock.FireDue()
	snapshot := h.snapshot(t)
	assert.Equal(t, model.PhaseStopped, snapshot.Phase)
	assert.Equal(t, model.Counters{FocusMinutesAccrued: 10, FreeMinutesBalance: 5}, snapshot.Counters)
}

func TestClockMovingBackwardsKeepsFullDuration(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFocusing))
	alarm, err := h.repo.Alarm(ctx)
	require.NoError(t, err)
	alarm.StartTimestamp = start.Add(time.Hour)
	require.NoError(t, h.repo.SetAlarm(ctx, alarm))

	require.NoError(t, h.keeper.Wake(ctx, alarm.ID))
	assert.Equal(t, 25, remaining(t, h.snapshot(t)))
}

func TestStaleWakeUpIsIgnored(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())

	require.NoError(t, h.keeper.Wake(ctx, "missing"))
	assert.Equal(t, model.PhaseStopped, h.snapshot(t).Phase)

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFocusing))
	h.clock.Jump(5 * time.Minute)
	require.NoError(t, h.keeper.Wake(ctx, "superseded"))
	assert.Equal(t, 25, remaining(t, h.snapshot(t)))
}

func TestTransitionsFollowTable(t *testing.T) {
	tests := []struct {
		name    string
		from    model.Phase
		to      model.Phase
		wantErr error
	}{
		{name: "focus to free", from: model.PhaseFocusing, to: model.PhaseFreeTime, wantErr: timekeeper.ErrInvalidTransition},
		{name: "rest to free", from: model.PhaseResting, to: model.PhaseFreeTime, wantErr: timekeeper.ErrInvalidTransition},
		{name: "free to rest", from: model.PhaseFreeTime, to: model.PhaseResting, wantErr: timekeeper.ErrInvalidTransition},
		{name: "focus to rest", from: model.PhaseFocusing, to: model.PhaseResting},
		{name: "rest to focus", from: model.PhaseResting, to: model.PhaseFocusing},
		{name: "free to focus", from: model.PhaseFreeTime, to: model.PhaseFocusing},
		{name: "stop to stop", from: model.PhaseStopped, to: model.PhaseStopped},
		{name: "unknown phase", from: model.PhaseStopped, to: model.Phase("nap"), wantErr: model.ErrUnknownPhase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, storage.NewMemoryStore(), shortConfig())
			require.NoError(t, h.repo.SetCounters(ctx, model.Counters{FreeMinutesBalance: 5}))
			if tt.from != model.PhaseStopped {
				require.NoError(t, h.keeper.RequestTransition(ctx, tt.from))
			}
			before := h.snapshot(t)

			err := h.keeper.RequestTransition(ctx, tt.to)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, h.snapshot(t))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, h.snapshot(t).Phase)
		})
	}
}

func TestSwitchingPhaseRearmsAlarm(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFocusing))
	first, err := h.repo.Alarm(ctx)
	require.NoError(t, err)

	h.clock.Advance(3 * time.Minute)
	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseResting))
	second, err := h.repo.Alarm(ctx)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, model.PhaseResting, second.Phase)
	assert.Equal(t, 5, remaining(t, h.snapshot(t)))
	assert.Equal(t, 1, h.clock.Pending())
}

func TestToggleFocus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())

	require.NoError(t, h.keeper.ToggleFocus(ctx))
	assert.Equal(t, model.PhaseFocusing, h.snapshot(t).Phase)
	require.NoError(t, h.keeper.ToggleFocus(ctx))
	assert.Equal(t, model.PhaseStopped, h.snapshot(t).Phase)
}

func TestAcknowledgeNotificationStartsNextPhase(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFocusing))
	h.clock.Advance(25 * time.Minute)
	require.NoError(t, h.keeper.AcknowledgeNotification(ctx, model.NotificationFocus))
	assert.Equal(t, model.PhaseResting, h.snapshot(t).Phase)
	assert.Contains(t, h.notifier.dismissed, model.NotificationFocus)

	h.clock.Advance(5 * time.Minute)
	require.NoError(t, h.keeper.AcknowledgeNotification(ctx, model.NotificationRest))
	assert.Equal(t, model.PhaseFocusing, h.snapshot(t).Phase)

	err := h.keeper.AcknowledgeNotification(ctx, model.NotificationID("other"))
	require.ErrorIs(t, err, timekeeper.ErrUnknownNotification)
}

func TestNotifierFailureDoesNotBlockCompletion(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())
	h.notifier.err = errors.New("no notification daemon")

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFocusing))
	h.clock.Advance(25 * time.Minute)

	snapshot := h.snapshot(t)
	assert.Equal(t, model.PhaseStopped, snapshot.Phase)
	assert.Equal(t, 25, snapshot.Counters.FocusMinutesAccrued)
}

func TestResetAll(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())
	signals := h.keeper.Subscribe(16)

	require.NoError(t, h.repo.SetCounters(ctx, model.Counters{FocusMinutesAccrued: 100, FreeMinutesBalance: 20}))
	require.NoError(t, h.keeper.UpdateConfig(ctx, model.Config{FocusTime: 50, FreeTime: 10, RestTime: 10}))
	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFocusing))
	drain(signals)

	require.NoError(t, h.keeper.ResetAll(ctx))
	assert.Equal(t, model.Snapshot{Phase: model.PhaseStopped, Config: shortConfig()}, h.snapshot(t))
	assert.Equal(t, []timekeeper.SignalType{timekeeper.SignalStateWasReset}, drain(signals))
	assert.Zero(t, h.clock.Pending())

	h.clock.Advance(time.Hour)
	assert.Equal(t, model.PhaseStopped, h.snapshot(t).Phase)
	assert.Empty(t, h.notifier.ids())
}

func TestResetAllIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())

	require.NoError(t, h.repo.SetCounters(ctx, model.Counters{FocusMinutesAccrued: 30, FreeMinutesBalance: -4}))
	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseResting))

	require.NoError(t, h.keeper.ResetAll(ctx))
	once := h.snapshot(t)
	require.NoError(t, h.keeper.ResetAll(ctx))
	twice := h.snapshot(t)

	assert.Equal(t, once, twice)
	assert.Equal(t, model.Snapshot{Phase: model.PhaseStopped, Config: shortConfig()}, twice)
	assert.Zero(t, h.clock.Pending())
}

func TestUpdateConfigAppliesToNextPhase(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFocusing))
	require.NoError(t, h.keeper.UpdateConfig(ctx, model.Config{FocusTime: 40, FreeTime: 5, RestTime: 5}))
	assert.Equal(t, 25, remaining(t, h.snapshot(t)))

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseStopped))
	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFocusing))
	assert.Equal(t, 40, remaining(t, h.snapshot(t)))

	err := h.keeper.UpdateConfig(ctx, model.Config{FocusTime: 0, FreeTime: 5, RestTime: 5})
	require.ErrorIs(t, err, model.ErrInvalidConfig)
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())

	require.NoError(t, h.keeper.Dispatch(ctx, timekeeper.Command{Type: timekeeper.CommandChangePhase, Phase: model.PhaseFocusing}))
	assert.Equal(t, model.PhaseFocusing, h.snapshot(t).Phase)

	config := model.Config{FocusTime: 30, FreeTime: 6, RestTime: 6}
	require.NoError(t, h.keeper.Dispatch(ctx, timekeeper.Command{Type: timekeeper.CommandUpdateConfig, Config: config}))
	assert.Equal(t, config, h.snapshot(t).Config)

	require.NoError(t, h.keeper.Dispatch(ctx, timekeeper.Command{Type: timekeeper.CommandReset}))
	assert.Equal(t, model.PhaseStopped, h.snapshot(t).Phase)

	err := h.keeper.Dispatch(ctx, timekeeper.Command{Type: "teleport"})
	require.ErrorIs(t, err, timekeeper.ErrUnknownCommand)
}

func TestRunProcessesCommandsUntilClosed(t *testing.T) {
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())
	commands := make(chan timekeeper.Command, 3)
	commands <- timekeeper.Command{Type: timekeeper.CommandChangePhase, Phase: model.PhaseFocusing}
	commands <- timekeeper.Command{Type: "bogus"}
	commands <- timekeeper.Command{Type: timekeeper.CommandChangePhase, Phase: model.PhaseResting}
	close(commands)

	require.NoError(t, h.keeper.Run(context.Background(), commands))
	assert.Equal(t, model.PhaseResting, h.snapshot(t).Phase)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.keeper.Run(ctx, make(chan timekeeper.Command))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRestoreRearmsRunningPhase(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	first := newHarness(t, store, shortConfig())
	require.NoError(t, first.keeper.RequestTransition(ctx, model.PhaseFocusing))
	first.keeper.Close()

	second := newHarness(t, store, shortConfig())
	second.clock.Jump(12 * time.Minute)
	require.NoError(t, second.keeper.Restore(ctx))
	minutes, visible := second.display.badge()
	assert.True(t, visible)
	assert.Equal(t, 13, minutes)

	second.clock.FireDue()
	assert.Equal(t, 13, remaining(t, second.snapshot(t)))

	second.clock.Advance(13 * time.Minute)
	snapshot := second.snapshot(t)
	assert.Equal(t, model.PhaseStopped, snapshot.Phase)
	assert.Equal(t, 25, snapshot.Counters.FocusMinutesAccrued)
}

func TestRestoreStopsPhaseWithoutAlarm(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())
	require.NoError(t, h.repo.SetPhase(ctx, model.PhaseResting))

	require.NoError(t, h.keeper.Restore(ctx))
	assert.Equal(t, model.PhaseStopped, h.snapshot(t).Phase)
}

func TestRestoreRemovesAlarmWhenStopped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())
	require.NoError(t, h.repo.SetAlarm(ctx, &model.Alarm{ID: "left-over", Phase: model.PhaseFocusing, StartTimestamp: start}))

	require.NoError(t, h.keeper.Restore(ctx))
	assert.Nil(t, h.snapshot(t).Alarm)
	assert.Zero(t, h.clock.Pending())
}

func TestStoreFailureFallsBackToStopped(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: storage.NewMemoryStore()}
	h := newHarness(t, store, shortConfig())

	store.fail(storage.KeyAlarm)
	err := h.keeper.RequestTransition(ctx, model.PhaseFocusing)
	require.ErrorIs(t, err, errBackend)
	store.fail("")

	snapshot := h.snapshot(t)
	assert.Equal(t, model.PhaseStopped, snapshot.Phase)
	assert.Nil(t, snapshot.RemainingMinutes)
	_, visible := h.display.badge()
	assert.False(t, visible)
	assert.Zero(t, h.clock.Pending())
}

func TestSubscribeDropsWhenFull(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, storage.NewMemoryStore(), shortConfig())
	signals := h.keeper.Subscribe(1)

	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseFocusing))
	require.NoError(t, h.keeper.RequestTransition(ctx, model.PhaseStopped))

	assert.Len(t, drain(signals), 1)
}

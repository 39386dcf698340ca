package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"focus/internal/core/model"
)

// ErrCorruptValue indicates a persisted value that cannot be decoded.
var ErrCorruptValue = errors.New("corrupt persisted value")

// Repository provides typed access to the persisted timer state. It keeps
// no copies: every read goes to the store and every write is committed
// before returning.
type Repository struct {
	store Store
}

// NewRepository wraps store.
func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

// Store returns the underlying store.
func (repo *Repository) Store() Store {
	return repo.store
}

// InitialState returns the values written on first run and after a reset.
func InitialState(config model.Config) map[string]any {
	return map[string]any{
		KeyPhase:               model.PhaseStopped,
		KeyRemainingMinutes:    nil,
		KeyFreeMinutesBalance:  0,
		KeyFocusMinutesAccrued: 0,
		KeyConfig:              config,
	}
}

// Seed writes the initial state unless a configuration already exists.
// It reports whether anything was written.
func (repo *Repository) Seed(ctx context.Context, defaults model.Config) (bool, error) {
	values, err := repo.store.Get(ctx, KeyConfig)
	if err != nil {
		return false, fmt.Errorf("read config: %w", err)
	}
	if raw, ok := values[KeyConfig]; ok && !isNull(raw) {
		return false, nil
	}
	if err := repo.set(ctx, InitialState(defaults)); err != nil {
		return false, err
	}
	return true, nil
}

// Reset clears everything and writes the initial state.
func (repo *Repository) Reset(ctx context.Context, defaults model.Config) error {
	if err := repo.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	return repo.set(ctx, InitialState(defaults))
}

// Phase returns the persisted phase, Stopped when none is stored.
// Unknown persisted values are returned as-is for the caller to reject.
func (repo *Repository) Phase(ctx context.Context) (model.Phase, error) {
	var phase model.Phase
	found, err := repo.get(ctx, KeyPhase, &phase)
	if err != nil {
		return "", err
	}
	if !found || phase == "" {
		return model.PhaseStopped, nil
	}
	return phase, nil
}

// SetPhase persists the phase.
func (repo *Repository) SetPhase(ctx context.Context, phase model.Phase) error {
	return repo.set(ctx, map[string]any{KeyPhase: phase})
}

// Remaining returns the persisted remaining minutes, nil when cleared.
func (repo *Repository) Remaining(ctx context.Context) (*int, error) {
	var remaining *int
	if _, err := repo.get(ctx, KeyRemainingMinutes, &remaining); err != nil {
		return nil, err
	}
	return remaining, nil
}

// SetRemaining persists remaining minutes; nil clears the field.
func (repo *Repository) SetRemaining(ctx context.Context, remaining *int) error {
	return repo.set(ctx, map[string]any{KeyRemainingMinutes: remaining})
}

// Counters returns the accrued counters, zero when absent.
func (repo *Repository) Counters(ctx context.Context) (model.Counters, error) {
	values, err := repo.store.Get(ctx, KeyFocusMinutesAccrued, KeyFreeMinutesBalance)
	if err != nil {
		return model.Counters{}, fmt.Errorf("read counters: %w", err)
	}

	var counters model.Counters
	if err := decodeInto(values, KeyFocusMinutesAccrued, &counters.FocusMinutesAccrued); err != nil {
		return model.Counters{}, err
	}
	if err := decodeInto(values, KeyFreeMinutesBalance, &counters.FreeMinutesBalance); err != nil {
		return model.Counters{}, err
	}
	return counters, nil
}

// SetCounters writes both counters in one call.
func (repo *Repository) SetCounters(ctx context.Context, counters model.Counters) error {
	return repo.set(ctx, map[string]any{
		KeyFocusMinutesAccrued: counters.FocusMinutesAccrued,
		KeyFreeMinutesBalance:  counters.FreeMinutesBalance,
	})
}

// SetFreeBalance writes only the free-time balance.
func (repo *Repository) SetFreeBalance(ctx context.Context, balance int) error {
	return repo.set(ctx, map[string]any{KeyFreeMinutesBalance: balance})
}

// Config returns the persisted configuration, or defaults when absent.
func (repo *Repository) Config(ctx context.Context, defaults model.Config) (model.Config, error) {
	config := defaults
	if _, err := repo.get(ctx, KeyConfig, &config); err != nil {
		return model.Config{}, err
	}
	return config, nil
}

// SetConfig persists the configuration.
func (repo *Repository) SetConfig(ctx context.Context, config model.Config) error {
	return repo.set(ctx, map[string]any{KeyConfig: config})
}

// Alarm returns the active alarm descriptor, nil when there is none.
func (repo *Repository) Alarm(ctx context.Context) (*model.Alarm, error) {
	var alarm *model.Alarm
	if _, err := repo.get(ctx, KeyAlarm, &alarm); err != nil {
		return nil, err
	}
	return alarm, nil
}

// SetAlarm persists the alarm descriptor; nil deletes it.
func (repo *Repository) SetAlarm(ctx context.Context, alarm *model.Alarm) error {
	return repo.set(ctx, map[string]any{KeyAlarm: alarm})
}

// Snapshot reads the whole state in one call.
func (repo *Repository) Snapshot(ctx context.Context, defaults model.Config) (model.Snapshot, error) {
	values, err := repo.store.Get(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read state: %w", err)
	}

	snapshot := model.Snapshot{Phase: model.PhaseStopped, Config: defaults}
	decoders := []struct {
		key    string
		target any
	}{
		{KeyPhase, &snapshot.Phase},
		{KeyRemainingMinutes, &snapshot.RemainingMinutes},
		{KeyFocusMinutesAccrued, &snapshot.Counters.FocusMinutesAccrued},
		{KeyFreeMinutesBalance, &snapshot.Counters.FreeMinutesBalance},
		{KeyConfig, &snapshot.Config},
		{KeyAlarm, &snapshot.Alarm},
	}
	for _, decoder := range decoders {
		if err := decodeInto(values, decoder.key, decoder.target); err != nil {
			return model.Snapshot{}, err
		}
	}
	if snapshot.Phase == "" {
		snapshot.Phase = model.PhaseStopped
	}
	return snapshot, nil
}

func (repo *Repository) get(ctx context.Context, key string, target any) (bool, error) {
	values, err := repo.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if _, ok := values[key]; !ok {
		return false, nil
	}
	if err := decodeInto(values, key, target); err != nil {
		return false, err
	}
	return true, nil
}

func (repo *Repository) set(ctx context.Context, values map[string]any) error {
	encoded := make(map[string][]byte, len(values))
	for key, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		encoded[key] = raw
	}
	if err := repo.store.Set(ctx, encoded); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

func decodeInto(values map[string][]byte, key string, target any) error {
	raw, ok := values[key]
	if !ok || isNull(raw) {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorruptValue, key, err)
	}
	return nil
}

func isNull(raw []byte) bool {
	return len(raw) == 0 || string(raw) == "null"
}

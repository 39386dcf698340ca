// Package storage provides the durable key-value store that holds all timer
// state, together with a typed repository over it.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Persisted keys.
const (
	KeyPhase               = "phase"
	KeyRemainingMinutes    = "remainingMinutes"
	KeyFreeMinutesBalance  = "freeMinutesBalance"
	KeyFocusMinutesAccrued = "focusMinutesAccrued"
	KeyConfig              = "config"
	KeyAlarm               = "alarm"
)

var (
	// ErrStoreUnavailable indicates the store kept failing after retries.
	ErrStoreUnavailable = errors.New("state store unavailable")

	// ErrUnknownDriver indicates an unsupported storage driver name.
	ErrUnknownDriver = errors.New("unknown storage driver")

	// ErrClosed indicates an operation on a closed store.
	ErrClosed = errors.New("store closed")
)

// Store is a durable key-value mapping. Values are JSON documents. Writes to
// different keys in one Set are not guaranteed to be observed together.
type Store interface {
	// Get returns the values for keys; no keys returns every entry.
	// Missing keys are absent from the result.
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)

	// Set writes every entry in values.
	Set(ctx context.Context, values map[string][]byte) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver       string
	Path         string
	RedisAddr    string
	RedisKey     string
	LockTimeout  time.Duration
	RetryOptions RetryOptions
}

// Open creates the store named by options.Driver wrapped with retries.
func Open(ctx context.Context, options Options) (Store, error) {
	var (
		store Store
		err   error
	)

	switch strings.ToLower(options.Driver) {
	case "", "file":
		store, err = NewFileStore(options.Path, WithLockTimeout(options.LockTimeout))
	case "sqlite", "sqlite3":
		store, err = NewSQLiteStore(ctx, options.Path)
	case "redis":
		store, err = NewRedisStore(options.RedisAddr, options.RedisKey)
	case "memory":
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, options.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", options.Driver, err)
	}

	return NewRetryStore(store, options.RetryOptions), nil
}

func copyValues(values map[string][]byte) map[string][]byte {
	copied := make(map[string][]byte, len(values))
	for key, value := range values {
		copied[key] = append([]byte(nil), value...)
	}
	return copied
}

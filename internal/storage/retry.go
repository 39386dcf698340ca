package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryOptions controls how failing store calls are retried.
type RetryOptions struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryOptions returns three attempts starting at 100ms.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{Attempts: 3, Backoff: 100 * time.Millisecond}
}

// RetryStore retries failed calls on the wrapped store with exponential
// backoff. Once attempts are exhausted the error wraps ErrStoreUnavailable.
type RetryStore struct {
	inner   Store
	options RetryOptions
}

// NewRetryStore wraps inner.
func NewRetryStore(inner Store, options RetryOptions) *RetryStore {
	if options.Attempts <= 0 {
		options.Attempts = DefaultRetryOptions().Attempts
	}
	if options.Backoff <= 0 {
		options.Backoff = DefaultRetryOptions().Backoff
	}
	return &RetryStore{inner: inner, options: options}
}

// Unwrap returns the wrapped store.
func (store *RetryStore) Unwrap() Store {
	return store.inner
}

// Get retries inner.Get.
func (store *RetryStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	var result map[string][]byte
	err := store.do(ctx, "get", func() error {
		var err error
		result, err = store.inner.Get(ctx, keys...)
		return err
	})
	return result, err
}

// Set retries inner.Set.
func (store *RetryStore) Set(ctx context.Context, values map[string][]byte) error {
	return store.do(ctx, "set", func() error {
		return store.inner.Set(ctx, values)
	})
}

// Clear retries inner.Clear.
func (store *RetryStore) Clear(ctx context.Context) error {
	return store.do(ctx, "clear", func() error {
		return store.inner.Clear(ctx)
	})
}

// Close closes the wrapped store.
func (store *RetryStore) Close() error {
	return store.inner.Close()
}

func (store *RetryStore) do(ctx context.Context, operation string, fn func() error) error {
	backoff := store.options.Backoff
	var lastErr error

	for attempt := 1; attempt <= store.options.Attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) || errors.Is(lastErr, ErrClosed) {
			return lastErr
		}
		if attempt == store.options.Attempts {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return fmt.Errorf("%w: %s failed after %d attempts: %w", ErrStoreUnavailable, operation, store.options.Attempts, lastErr)
}

package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps state in process memory. It is used by tests and by the
// memory driver for throwaway sessions.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
	closed bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get returns copies of the requested values.
func (store *MemoryStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return nil, ErrClosed
	}

	if len(keys) == 0 {
		return copyValues(store.values), nil
	}
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if value, ok := store.values[key]; ok {
			result[key] = append([]byte(nil), value...)
		}
	}
	return result, nil
}

// Set stores copies of values.
func (store *MemoryStore) Set(ctx context.Context, values map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return ErrClosed
	}

	for key, value := range values {
		store.values[key] = append([]byte(nil), value...)
	}
	return nil
}

// Clear removes every value.
func (store *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return ErrClosed
	}

	store.values = make(map[string][]byte)
	return nil
}

// Close marks the store closed.
func (store *MemoryStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.closed = true
	return nil
}

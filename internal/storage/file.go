package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrLockTimeout indicates the state file lock could not be acquired in time.
var ErrLockTimeout = errors.New("state file lock timeout")

const defaultLockTimeout = 5 * time.Second

// FileStore keeps state in a single YAML document. Every operation holds an
// exclusive lock on a sibling .lock file so a daemon and CLI invocations can
// share the file.
type FileStore struct {
	path        string
	lockTimeout time.Duration
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithLockTimeout sets how long operations wait for the file lock.
func WithLockTimeout(timeout time.Duration) FileStoreOption {
	return func(store *FileStore) {
		if timeout > 0 {
			store.lockTimeout = timeout
		}
	}
}

// NewFileStore creates a store backed by the YAML file at path.
func NewFileStore(path string, opts ...FileStoreOption) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	store := &FileStore{path: path, lockTimeout: defaultLockTimeout}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Path returns the state file location.
func (store *FileStore) Path() string {
	return store.path
}

// Get reads the requested keys from the state file.
func (store *FileStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	var result map[string][]byte
	err := store.withLock(ctx, func() error {
		document, err := store.read()
		if err != nil {
			return err
		}
		result, err = encodeDocument(document, keys)
		return err
	})
	return result, err
}

// Set merges values into the state file.
func (store *FileStore) Set(ctx context.Context, values map[string][]byte) error {
	return store.withLock(ctx, func() error {
		document, err := store.read()
		if err != nil {
			return err
		}
		for key, raw := range values {
			var value any
			if err := json.Unmarshal(raw, &value); err != nil {
				return fmt.Errorf("decode value for %s: %w", key, err)
			}
			document[key] = value
		}
		return store.write(document)
	})
}

// Clear empties the state file.
func (store *FileStore) Clear(ctx context.Context) error {
	return store.withLock(ctx, func() error {
		return store.write(map[string]any{})
	})
}

// Close is a no-op; the file is only open while locked.
func (store *FileStore) Close() error {
	return nil
}

func (store *FileStore) read() (map[string]any, error) {
	rawData, err := os.ReadFile(store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	document := map[string]any{}
	if err := yaml.Unmarshal(rawData, &document); err != nil {
		return nil, fmt.Errorf("parse state yaml: %w", err)
	}
	if document == nil {
		document = map[string]any{}
	}
	return document, nil
}

func (store *FileStore) write(document map[string]any) error {
	serialized, err := yaml.Marshal(document)
	if err != nil {
		return fmt.Errorf("marshal state yaml: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(store.path), ".state-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(serialized); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, store.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (store *FileStore) withLock(ctx context.Context, fn func() error) error {
	file, err := os.OpenFile(store.path+".lock", os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	deadline := time.Now().Add(store.lockTimeout)
	for {
		if err := lockExclusive(file.Fd()); err == nil {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w after %v", ErrLockTimeout, store.lockTimeout)
		}
		timer := time.NewTimer(50 * time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	defer func() {
		_ = unlock(file.Fd())
	}()

	return fn()
}

// encodeDocument converts YAML-decoded values back into JSON documents.
func encodeDocument(document map[string]any, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		keys = make([]string, 0, len(document))
		for key := range document {
			keys = append(keys, key)
		}
	}

	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		value, ok := document[key]
		if !ok {
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode value for %s: %w", key, err)
		}
		result[key] = raw
	}
	return result, nil
}

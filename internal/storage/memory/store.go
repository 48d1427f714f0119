package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gofinances/internal/storage"
)

// Store keeps values in a map. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
	closed bool
}

var _ storage.KeyValueStore = (*Store)(nil)

func New() *Store {
	return &Store{values: make(map[string]string)}
}

// NewFromFile seeds key with the contents of path. A missing file yields an
// empty store, so a fresh checkout starts with no transactions.
func NewFromFile(path, key string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	if v := strings.TrimSpace(string(data)); v != "" {
		s.values[key] = v
		slog.Info("Seeded memory store", "component", "storage", "path", path, "bytes", len(v))
	}
	return s, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, storage.ErrClosed
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.values[key] = value
	return nil
}

// Delete removes key. Used by tests to return to the never-written state.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

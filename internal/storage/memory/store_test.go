package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gofinances/internal/storage"
)

func TestGetSet(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, found, err := s.Get(ctx, "k"); err != nil || found {
		t.Fatalf("expected missing key, found=%v err=%v", found, err)
	}
	if err := s.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, found, err := s.Get(ctx, "k")
	if err != nil || !found || v != "v2" {
		t.Fatalf("unexpected get: %q %v %v", v, found, err)
	}

	s.Delete("k")
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Fatalf("expected key deleted")
	}
}

func TestClosedAndCancelled(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := s.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	_ = s.Close()
	if _, _, err := s.Get(context.Background(), "k"); !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := s.Set(context.Background(), "k", "v"); !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	key := storage.DefaultTransactionsKey

	s, err := NewFromFile(filepath.Join(dir, "missing.json"), key)
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if _, found, _ := s.Get(context.Background(), key); found {
		t.Fatalf("expected empty store")
	}

	path := filepath.Join(dir, "transactions.json")
	if err := os.WriteFile(path, []byte("  [{\"id\":\"1\"}]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err = NewFromFile(path, key)
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	v, found, _ := s.Get(context.Background(), key)
	if !found || v != `[{"id":"1"}]` {
		t.Fatalf("unexpected seed: %q %v", v, found)
	}
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "gofinances.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if _, found, err := s.Get(ctx, "k"); err != nil || found {
		t.Fatalf("expected missing key, found=%v err=%v", found, err)
	}
	if err := s.Set(ctx, "k", `[]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "k", `[{"id":"1"}]`); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	v, found, err := s.Get(ctx, "k")
	if err != nil || !found || v != `[{"id":"1"}]` {
		t.Fatalf("unexpected get: %q %v %v", v, found, err)
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gofinances.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	s.Close()

	// Second open runs migrations again and must hit ErrNoChange quietly.
	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if v, found, _ := s.Get(ctx, "k"); !found || v != "v" {
		t.Fatalf("value lost across reopen: %q %v", v, found)
	}
}

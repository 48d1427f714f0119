// Package storage defines the key-value port the dashboard reads from.
//
// Values are opaque strings. The transaction dataset lives under a single
// key as one JSON document.
package storage

import (
	"context"
	"errors"
)

// DefaultTransactionsKey is the key holding the persisted transaction list.
const DefaultTransactionsKey = "@gofinances:transactions"

var ErrClosed = errors.New("store closed")

type (
	// Reader is the only capability the loader needs.
	Reader interface {
		// Get returns the value stored under key. found is false when the
		// key was never written.
		Get(ctx context.Context, key string) (value string, found bool, err error)
	}

	Writer interface {
		Set(ctx context.Context, key, value string) error
	}

	// KeyValueStore is implemented by every backend.
	KeyValueStore interface {
		Reader
		Writer
		Close() error
	}
)

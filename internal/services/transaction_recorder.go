package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"gofinances/internal/core"
	"gofinances/internal/events"
	applog "gofinances/internal/log"
	"gofinances/internal/storage"
)

// ErrMalformedList is returned when the stored value under the key is not a
// JSON array, so appending to it would destroy data.
var ErrMalformedList = errors.New("stored transaction list is not a JSON array")

type store interface {
	storage.Reader
	storage.Writer
}

// TransactionRecorder appends transactions to the stored list and announces
// each write.
type TransactionRecorder struct {
	store     store
	key       string
	publisher events.Publisher
	logger    *applog.Logger
	now       func() time.Time
	newID     func() string

	mu sync.Mutex
}

// NewTransactionRecorder creates a recorder writing under key. publisher may
// be nil.
func NewTransactionRecorder(s store, key string, publisher events.Publisher) *TransactionRecorder {
	if key == "" {
		key = storage.DefaultTransactionsKey
	}
	return &TransactionRecorder{
		store:     s,
		key:       key,
		publisher: publisher,
		logger:    applog.Default(applog.ComponentRecorder),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// Record validates in and appends it. A failed publish is logged and does
// not undo the write.
func (r *TransactionRecorder) Record(ctx context.Context, in core.NewTransaction) (core.TransactionRecord, error) {
	if err := in.Validate(); err != nil {
		return core.TransactionRecord{}, err
	}
	rec := in.ToRecord(r.newID(), r.now())

	encoded, err := json.Marshal(rec)
	if err != nil {
		return core.TransactionRecord{}, fmt.Errorf("encode record: %w", err)
	}

	r.mu.Lock()
	err = r.appendLocked(ctx, []json.RawMessage{encoded}, false)
	r.mu.Unlock()
	if err != nil {
		return core.TransactionRecord{}, err
	}

	r.logger.InfoContext(ctx, "Recorded transaction",
		applog.FieldRecordID, rec.ID,
		applog.FieldType, string(rec.Type),
		applog.FieldAmount, string(rec.Amount))

	r.announce(ctx, rec.ID)
	return rec, nil
}

// Import writes records in bulk. With replace the stored list is
// overwritten, otherwise records are appended. Records are validated first
// and none are written if any is invalid.
func (r *TransactionRecorder) Import(ctx context.Context, records []core.TransactionRecord, replace bool) (int, error) {
	raws := make([]json.RawMessage, 0, len(records))
	for i, rec := range records {
		if rec.ID == "" {
			rec.ID = r.newID()
		}
		if err := rec.Validate(); err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("encode record %d: %w", i, err)
		}
		raws = append(raws, b)
	}

	r.mu.Lock()
	err := r.appendLocked(ctx, raws, replace)
	r.mu.Unlock()
	if err != nil {
		return 0, err
	}

	r.announce(ctx, "")
	return len(raws), nil
}

func (r *TransactionRecorder) appendLocked(ctx context.Context, add []json.RawMessage, replace bool) error {
	var list []json.RawMessage
	if !replace {
		raw, found, err := r.store.Get(ctx, r.key)
		if err != nil {
			return fmt.Errorf("read %s: %w", r.key, err)
		}
		if found {
			trimmed := bytes.TrimSpace([]byte(raw))
			if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
				if err := json.Unmarshal(trimmed, &list); err != nil {
					return fmt.Errorf("%w: %v", ErrMalformedList, err)
				}
			}
		}
	}
	list = append(list, add...)
	if list == nil {
		list = []json.RawMessage{}
	}

	out, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode list: %w", err)
	}
	if err := r.store.Set(ctx, r.key, string(out)); err != nil {
		return fmt.Errorf("write %s: %w", r.key, err)
	}
	return nil
}

func (r *TransactionRecorder) announce(ctx context.Context, id string) {
	if r.publisher == nil {
		return
	}
	msg := events.NewTransactionRecorded(id, r.key, r.now())
	if err := r.publisher.PublishTransactionRecorded(ctx, msg); err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish transaction recorded event",
			applog.FieldRecordID, id,
			applog.FieldError, err)
	}
}

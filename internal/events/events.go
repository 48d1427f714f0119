// Package events defines the change notifications exchanged when the stored
// transaction list is written.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TransactionRecorded announces that a record was appended under Key.
// Consumers re-read the key; the message carries no record data.
type TransactionRecorded struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionRecorded(id, key string, now time.Time) TransactionRecorded {
	return TransactionRecorded{ID: id, Key: key, Timestamp: now.UTC()}
}

func (m TransactionRecorded) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionRecordedFromJSON(data []byte) (TransactionRecorded, error) {
	var m TransactionRecorded
	if err := json.Unmarshal(data, &m); err != nil {
		return TransactionRecorded{}, fmt.Errorf("decode transaction recorded: %w", err)
	}
	if m.Key == "" {
		return TransactionRecorded{}, errors.New("decode transaction recorded: missing key")
	}
	return m, nil
}

// Publisher sends change notifications to a broker.
type Publisher interface {
	PublishTransactionRecorded(ctx context.Context, msg TransactionRecorded) error
}

// Multi fans a message out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) PublishTransactionRecorded(ctx context.Context, msg TransactionRecorded) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishTransactionRecorded(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"gofinances/internal/events"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewPublisherRequiresBrokers(t *testing.T) {
	if _, err := NewPublisher(nil, "t"); err == nil {
		t.Fatal("expected error without brokers")
	}
	p, err := NewPublisher([]string{"localhost:9092"}, "")
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	if p.Topic() != DefaultTopic {
		t.Errorf("Topic() = %q, want %q", p.Topic(), DefaultTopic)
	}
}

func TestPublishTransactionRecorded(t *testing.T) {
	w := &recordingWriter{}
	p := &Publisher{writer: w, topic: "t"}
	msg := events.NewTransactionRecorded("id-1", "@gofinances:transactions", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	if err := p.PublishTransactionRecorded(context.Background(), msg); err != nil {
		t.Fatalf("PublishTransactionRecorded: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != msg.Key {
		t.Errorf("message key = %q, want %q", w.msgs[0].Key, msg.Key)
	}
	got, err := events.TransactionRecordedFromJSON(w.msgs[0].Value)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "id-1" || !got.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("unexpected payload: %+v", got)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close did not close the writer")
	}
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("leader not available")
	p := &Publisher{writer: &recordingWriter{err: boom}, topic: "t"}

	err := p.PublishTransactionRecorded(context.Background(), events.NewTransactionRecorded("x", "k", time.Now()))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}

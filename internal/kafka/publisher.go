package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"gofinances/internal/events"
)

const DefaultTopic = "gofinances.transaction_recorded"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes change notifications to a topic, keyed by storage key so
// events for one list stay ordered within a partition.
type Publisher struct {
	writer messageWriter
	topic  string
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}, nil
}

func (p *Publisher) Topic() string {
	return p.topic
}

func (p *Publisher) PublishTransactionRecorded(ctx context.Context, msg events.TransactionRecorded) error {
	data, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("kafka: marshal message: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Key),
		Value: data,
		Time:  msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("kafka: write to %s: %w", p.topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// Topics published by the ledger core.
const (
	TopicEntryPosted   = "ledger.entry_posted"
	TopicEntryReversed = "ledger.entry_reversed"
	TopicPeriodClosed  = "ledger.period_closed"
)

// Publisher emits ledger lifecycle events for downstream consumers.
// Publishing is best-effort: callers log failures and never fail the
// originating ledger operation because of them.
type Publisher interface {
	Publish(ctx context.Context, eventType string, event any) error
	Close() error
}

// KafkaPublisher writes ledger events to a Kafka topic, keyed by event type.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher writing to the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(eventType),
		Value: data,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards all events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (NoopPublisher) Close() error                               { return nil }

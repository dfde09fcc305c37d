// Package events emits chat domain events for downstream consumers (the
// notification service, analytics). Publishing is best-effort: a broker
// outage never fails a chat write.
package events

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

type MessageSent struct {
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	RecipientID    string    `json:"recipient_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type Publisher interface {
	PublishMessageSent(ctx context.Context, ev MessageSent) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafkago.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishMessageSent(ctx context.Context, ev MessageSent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	// Keyed by conversation so one thread's events stay in partition order.
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(ev.ConversationID),
		Value: b,
		Time:  ev.CreatedAt,
	})
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishMessageSent(context.Context, MessageSent) error { return nil }
func (NopPublisher) Close() error                                          { return nil }

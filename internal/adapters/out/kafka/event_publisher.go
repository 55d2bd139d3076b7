// Package kafka publishes assignment status changes to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/segmentio/kafka-go"
)

var _ ports.EventPublisher = (*EventPublisher)(nil)

const eventTypeHeader = "event-type"

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// StatusChangedMessage is the JSON payload written for every status change.
type StatusChangedMessage struct {
	EventID    string    `json:"eventId"`
	EventType  string    `json:"eventType"`
	OrderID    string    `json:"orderId"`
	PartnerID  string    `json:"partnerId,omitempty"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurredAt"`
}

// EventPublisher writes events keyed by order ID, so every change of one
// order lands on the same partition in order.
type EventPublisher struct {
	writer MessageWriter
}

// NewWriter creates a kafka-go writer for topic on brokers.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// NewEventPublisher creates a publisher over writer.
func NewEventPublisher(writer MessageWriter) (*EventPublisher, error) {
	if writer == nil {
		return nil, errs.NewValueIsRequiredError("writer")
	}
	return &EventPublisher{writer: writer}, nil
}

// Publish writes all events in one batch.
func (p *EventPublisher) Publish(ctx context.Context, events ...assignment.StatusChanged) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(NewStatusChangedMessage(e))
		if err != nil {
			return fmt.Errorf("encode %s for order %s: %w", e.Name(), e.OrderID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.OrderID),
			Value: value,
			Time:  e.OccurredAt,
			Headers: []kafka.Header{
				{Key: eventTypeHeader, Value: []byte(e.Name())},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return errs.NewDependencyError("event broker", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *EventPublisher) Close() error {
	return p.writer.Close()
}

// NewStatusChangedMessage converts a domain event into its wire form.
func NewStatusChangedMessage(e assignment.StatusChanged) StatusChangedMessage {
	return StatusChangedMessage{
		EventID:    e.EventID.String(),
		EventType:  e.Name(),
		OrderID:    e.OrderID,
		PartnerID:  e.PartnerID,
		From:       e.From.String(),
		To:         e.To.String(),
		OccurredAt: e.OccurredAt.UTC(),
	}
}

// Package eventlog publishes assignment status changes to a structured log.
// It is used when no broker is configured.
package eventlog

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/ports"
)

var _ ports.EventPublisher = (*EventPublisher)(nil)

type EventPublisher struct {
	logger *slog.Logger
}

func NewEventPublisher(logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{logger: logger.With("component", "event-log")}
}

func (p *EventPublisher) Publish(ctx context.Context, events ...assignment.StatusChanged) error {
	for _, e := range events {
		p.logger.InfoContext(ctx, e.Name(),
			"eventId", e.EventID.String(),
			"orderId", e.OrderID,
			"partnerId", e.PartnerID,
			"from", e.From.String(),
			"to", e.To.String(),
			"occurredAt", e.OccurredAt,
		)
	}
	return nil
}

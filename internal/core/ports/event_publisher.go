package ports

import (
	"context"

	"dispatch/internal/core/domain/model/assignment"
)

// EventPublisher delivers committed status changes to downstream consumers
// (notifications, customer order-status display).
type EventPublisher interface {
	Publish(ctx context.Context, events ...assignment.StatusChanged) error
}

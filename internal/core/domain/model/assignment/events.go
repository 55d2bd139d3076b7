package assignment

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// StatusChanged is raised by the aggregate on every status transition and
// published once the unit of work that produced it commits.
type StatusChanged struct {
	EventID    kernel.UUID
	OrderID    string
	PartnerID  string
	From       Status
	To         Status
	OccurredAt time.Time
}

// Name is the event type used on the wire.
func (StatusChanged) Name() string {
	return "OrderAssignmentStatusChanged"
}

// Package ports defines the contracts between the dispatch core and its adapters:
// persistence of assignments, the partner capacity ledger, the partner GeoIndex
// and the event publisher.
package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/assignment"
)

// AssignmentRepository defines the persistence contract for assignment aggregates.
//
// Every write is a conditional update keyed by order ID and version, so two actors
// racing the same order cannot both win: the loser gets *errs.VersionIsInvalidError.
type AssignmentRepository interface {
	// Add persists a new assignment. A second Add for the same order ID returns
	// *errs.ObjectAlreadyExistsError.
	Add(ctx context.Context, aggregate *assignment.Assignment) error

	// Update persists a transition: the row is updated only if its version still
	// equals aggregate.Version(), and the history entries appended since the last
	// load are inserted in the same transaction.
	Update(ctx context.Context, aggregate *assignment.Assignment) error

	// Get returns the assignment of an order or *errs.ObjectNotFoundError.
	Get(ctx context.Context, orderID string) (*assignment.Assignment, error)

	// ListExpired returns assigned records with timeoutAt <= now, highest priority first.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*assignment.Assignment, error)

	// ListPendingIdle returns pending records not updated since idleSince, highest
	// priority first.
	ListPendingIdle(ctx context.Context, idleSince time.Time, limit int) ([]*assignment.Assignment, error)

	// ListHoldings returns the partner of every assignment that holds one.
	ListHoldings(ctx context.Context) ([]Holding, error)
}

// AssignmentReader is the read side used by queries.
type AssignmentReader interface {
	// Get returns the assignment of an order or *errs.ObjectNotFoundError.
	Get(ctx context.Context, orderID string) (*assignment.Assignment, error)

	// ListByPartner returns the assignments held by a partner in the given statuses,
	// oldest first.
	ListByPartner(ctx context.Context, partnerID string, statuses []assignment.Status) ([]*assignment.Assignment, error)
}

// Holding is one active (assigned, accepted or in_transit) order held by a partner.
type Holding struct {
	OrderID   string
	PartnerID string
	Status    assignment.Status
}

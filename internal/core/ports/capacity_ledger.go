package ports

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/partner"
)

// ErrCapacityExceeded is returned by CapacityLedger.Reserve when the partner
// already holds maxConcurrentOrders orders.
var ErrCapacityExceeded = errors.New("partner capacity exceeded")

// CapacityLedger owns partner concurrent-order accounting. It is the single
// writer of currentLoad, assignedOrderIds and activeOrderId; all mutations are
// conditional so load never exceeds the ceiling.
type CapacityLedger interface {
	// Reserve counts orderID against the partner if load < maxConcurrentOrders.
	// A positive maxConcurrentOrders, taken from the partner's latest snapshot,
	// replaces the stored ceiling.
	// Reserving an order already counted is a no-op.
	Reserve(ctx context.Context, partnerID, orderID string, maxConcurrentOrders int) error

	// Release stops counting orderID against the partner and clears it as the
	// active order. Releasing an order that is not counted is a no-op.
	Release(ctx context.Context, partnerID, orderID string) error

	// Activate marks orderID as the order the partner is working on. Load is unchanged.
	Activate(ctx context.Context, partnerID, orderID string) error

	// Loads returns ledger rows for the given partners. Unknown partners are absent.
	Loads(ctx context.Context, partnerIDs []string) (map[string]partner.Capacity, error)

	// All returns every ledger row.
	All(ctx context.Context) ([]partner.Capacity, error)

	// Reset overwrites a row with reconciled values.
	Reset(ctx context.Context, capacity partner.Capacity) error
}

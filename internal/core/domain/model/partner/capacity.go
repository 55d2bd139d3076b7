package partner

import "slices"

// Capacity is the ledger view of one partner's concurrent-order accounting.
// CurrentLoad always equals len(AssignedOrderIDs) for ledger-maintained rows.
type Capacity struct {
	PartnerID           string
	CurrentLoad         int
	MaxConcurrentOrders int
	AssignedOrderIDs    []string
	ActiveOrderID       *string
}

// Holds reports whether orderID is counted against the partner.
func (c Capacity) Holds(orderID string) bool {
	return slices.Contains(c.AssignedOrderIDs, orderID)
}

// Matches reports whether the ledger row agrees with the expected set of
// orders and active order, ignoring order of IDs.
func (c Capacity) Matches(orderIDs []string, activeOrderID *string) bool {
	if c.CurrentLoad != len(orderIDs) || len(c.AssignedOrderIDs) != len(orderIDs) {
		return false
	}
	got := slices.Clone(c.AssignedOrderIDs)
	want := slices.Clone(orderIDs)
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		return false
	}
	switch {
	case c.ActiveOrderID == nil && activeOrderID == nil:
		return true
	case c.ActiveOrderID == nil || activeOrderID == nil:
		return false
	default:
		return *c.ActiveOrderID == *activeOrderID
	}
}

package memory

import (
	"cmp"
	"context"
	"slices"

	"dispatch/internal/core/domain/model/partner"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

var _ ports.CapacityLedger = (*CapacityLedger)(nil)

// CapacityLedger keeps partner capacity rows in the Store.
type CapacityLedger struct {
	uow *UnitOfWork
}

func (l *CapacityLedger) Reserve(_ context.Context, partnerID, orderID string, maxConcurrentOrders int) error {
	if partnerID == "" {
		return errs.NewValueIsRequiredError("partnerId")
	}
	return l.uow.locked(func(s *Store) error {
		c, ok := s.capacity[partnerID]
		if !ok {
			c = partner.Capacity{PartnerID: partnerID}
		}
		if maxConcurrentOrders > 0 {
			c.MaxConcurrentOrders = maxConcurrentOrders
		}
		if c.Holds(orderID) {
			return nil
		}
		if c.CurrentLoad >= c.MaxConcurrentOrders {
			return ports.ErrCapacityExceeded
		}
		c.AssignedOrderIDs = append(slices.Clone(c.AssignedOrderIDs), orderID)
		c.CurrentLoad = len(c.AssignedOrderIDs)
		s.capacity[partnerID] = c
		return nil
	})
}

func (l *CapacityLedger) Release(_ context.Context, partnerID, orderID string) error {
	return l.uow.locked(func(s *Store) error {
		c, ok := s.capacity[partnerID]
		if !ok || !c.Holds(orderID) {
			return nil
		}
		c.AssignedOrderIDs = slices.DeleteFunc(slices.Clone(c.AssignedOrderIDs), func(id string) bool {
			return id == orderID
		})
		c.CurrentLoad = len(c.AssignedOrderIDs)
		if c.ActiveOrderID != nil && *c.ActiveOrderID == orderID {
			c.ActiveOrderID = nil
		}
		s.capacity[partnerID] = c
		return nil
	})
}

func (l *CapacityLedger) Activate(_ context.Context, partnerID, orderID string) error {
	return l.uow.locked(func(s *Store) error {
		c, ok := s.capacity[partnerID]
		if !ok || !c.Holds(orderID) {
			return nil
		}
		active := orderID
		c.ActiveOrderID = &active
		s.capacity[partnerID] = c
		return nil
	})
}

func (l *CapacityLedger) Loads(_ context.Context, partnerIDs []string) (map[string]partner.Capacity, error) {
	loads := make(map[string]partner.Capacity, len(partnerIDs))
	err := l.uow.locked(func(s *Store) error {
		for _, id := range partnerIDs {
			if c, ok := s.capacity[id]; ok {
				loads[id] = cloneCapacity(c)
			}
		}
		return nil
	})
	return loads, err
}

func (l *CapacityLedger) All(_ context.Context) ([]partner.Capacity, error) {
	var rows []partner.Capacity
	err := l.uow.locked(func(s *Store) error {
		for _, c := range s.capacity {
			rows = append(rows, cloneCapacity(c))
		}
		return nil
	})
	slices.SortFunc(rows, func(a, b partner.Capacity) int {
		return cmp.Compare(a.PartnerID, b.PartnerID)
	})
	return rows, err
}

func (l *CapacityLedger) Reset(_ context.Context, capacity partner.Capacity) error {
	if capacity.PartnerID == "" {
		return errs.NewValueIsRequiredError("partnerId")
	}
	return l.uow.locked(func(s *Store) error {
		c := cloneCapacity(capacity)
		c.CurrentLoad = len(c.AssignedOrderIDs)
		s.capacity[capacity.PartnerID] = c
		return nil
	})
}

// SetCapacity seeds or overwrites a partner row; used by fixtures and the
// partner-availability feed.
func (s *Store) SetCapacity(c partner.Capacity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capacity[c.PartnerID] = cloneCapacity(c)
}

func cloneCapacity(c partner.Capacity) partner.Capacity {
	c.AssignedOrderIDs = slices.Clone(c.AssignedOrderIDs)
	if c.ActiveOrderID != nil {
		active := *c.ActiveOrderID
		c.ActiveOrderID = &active
	}
	return c
}

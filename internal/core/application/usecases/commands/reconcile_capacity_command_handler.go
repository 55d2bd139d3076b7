package commands

import (
	"context"
	"slices"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/partner"
	"dispatch/internal/core/ports"
)

// ReconcileCapacityCommandHandler repairs drift between the capacity ledger and
// the assignments. A crash between an assignment transition and its ledger
// update cannot happen inside one unit of work, but ledger rows can still be
// edited out of band or predate a deployment; this pass makes every partner's
// load equal the number of assignments it holds in assigned, accepted or
// in_transit, and its active order one of its accepted or in-transit orders.
type ReconcileCapacityCommandHandler struct {
	engine *AssignmentEngine
}

// NewReconcileCapacityCommandHandler creates the handler.
func NewReconcileCapacityCommandHandler(engine *AssignmentEngine) ReconcileCapacityCommandHandler {
	return ReconcileCapacityCommandHandler{engine: engine}
}

// Handle runs one reconciliation and returns the number of repaired partners.
func (h ReconcileCapacityCommandHandler) Handle(ctx context.Context, command ReconcileCapacityCommand) (int, error) {
	if err := command.Validate(); err != nil {
		return 0, err
	}

	repaired := 0
	err := h.engine.inTx(ctx, func(uow UoW) error {
		rows, err := uow.CapacityLedger().All(ctx)
		if err != nil {
			return err
		}
		holdings, err := uow.AssignmentRepository().ListHoldings(ctx)
		if err != nil {
			return err
		}

		for _, want := range expectedCapacity(rows, holdings) {
			current, known := findCapacity(rows, want.PartnerID)
			if known && current.Matches(want.AssignedOrderIDs, want.ActiveOrderID) {
				continue
			}
			if err := uow.CapacityLedger().Reset(ctx, want); err != nil {
				return err
			}
			h.engine.logger.WarnContext(ctx, "partner capacity repaired",
				"partnerId", want.PartnerID,
				"load", want.CurrentLoad,
				"previousLoad", current.CurrentLoad)
			repaired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	h.engine.metrics.ObserveReconcile(repaired)
	return repaired, nil
}

// expectedCapacity derives the ledger row every partner should have.
func expectedCapacity(rows []partner.Capacity, holdings []ports.Holding) []partner.Capacity {
	byPartner := make(map[string]*partner.Capacity)
	order := make([]string, 0, len(rows))

	for _, r := range rows {
		byPartner[r.PartnerID] = &partner.Capacity{
			PartnerID:           r.PartnerID,
			MaxConcurrentOrders: r.MaxConcurrentOrders,
			AssignedOrderIDs:    []string{},
		}
		order = append(order, r.PartnerID)
	}

	active := make(map[string][]string)
	for _, hld := range holdings {
		c, ok := byPartner[hld.PartnerID]
		if !ok {
			c = &partner.Capacity{PartnerID: hld.PartnerID, AssignedOrderIDs: []string{}}
			byPartner[hld.PartnerID] = c
			order = append(order, hld.PartnerID)
		}
		c.AssignedOrderIDs = append(c.AssignedOrderIDs, hld.OrderID)
		if hld.Status == assignment.Accepted || hld.Status == assignment.InTransit {
			active[hld.PartnerID] = append(active[hld.PartnerID], hld.OrderID)
		}
	}

	out := make([]partner.Capacity, 0, len(order))
	for _, id := range order {
		c := byPartner[id]
		slices.Sort(c.AssignedOrderIDs)
		c.CurrentLoad = len(c.AssignedOrderIDs)
		c.MaxConcurrentOrders = max(c.MaxConcurrentOrders, c.CurrentLoad, 1)
		c.ActiveOrderID = chooseActive(rows, id, active[id])
		out = append(out, *c)
	}
	return out
}

// chooseActive keeps the ledger's active order when it is still accepted or in
// transit, otherwise picks the lowest such order ID.
func chooseActive(rows []partner.Capacity, partnerID string, candidates []string) *string {
	if len(candidates) == 0 {
		return nil
	}
	if current, ok := findCapacity(rows, partnerID); ok && current.ActiveOrderID != nil &&
		slices.Contains(candidates, *current.ActiveOrderID) {
		v := *current.ActiveOrderID
		return &v
	}
	v := slices.Min(candidates)
	return &v
}

func findCapacity(rows []partner.Capacity, partnerID string) (partner.Capacity, bool) {
	for _, r := range rows {
		if r.PartnerID == partnerID {
			return r, true
		}
	}
	return partner.Capacity{}, false
}

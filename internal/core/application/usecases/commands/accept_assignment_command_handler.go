package commands

import (
	"context"

	"dispatch/internal/core/domain/model/assignment"
)

// AcceptAssignmentCommandHandler records a lease holder taking the order.
// The transition and the ledger's active-order mark commit together; the
// partner's load does not change because the reservation already counted it.
type AcceptAssignmentCommandHandler struct {
	engine *AssignmentEngine
}

// NewAcceptAssignmentCommandHandler creates the handler.
func NewAcceptAssignmentCommandHandler(engine *AssignmentEngine) AcceptAssignmentCommandHandler {
	return AcceptAssignmentCommandHandler{engine: engine}
}

// Handle processes the command. A partner that does not hold the lease, a lease
// whose deadline has passed, or an assignment that is not assigned yields
// *errs.InvalidTransitionError and no change.
func (h AcceptAssignmentCommandHandler) Handle(
	ctx context.Context,
	command AcceptAssignmentCommand,
) (*assignment.Assignment, error) {
	if err := command.Validate(); err != nil {
		return nil, err
	}

	var result *assignment.Assignment
	err := h.engine.inTx(ctx, func(uow UoW) error {
		a, err := uow.AssignmentRepository().Get(ctx, command.OrderID())
		if err != nil {
			return err
		}
		if err := a.Accept(command.PartnerID(), h.engine.now()); err != nil {
			return err
		}
		if err := uow.CapacityLedger().Activate(ctx, command.PartnerID(), command.OrderID()); err != nil {
			return err
		}
		if err := uow.AssignmentRepository().Update(ctx, a); err != nil {
			return err
		}
		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.engine.logger.InfoContext(ctx, "assignment accepted",
		"orderId", command.OrderID(), "partnerId", command.PartnerID())
	return result, nil
}

package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/assignment"
)

// RejectAssignmentCommandHandler returns a declined order to pending, frees the
// partner's capacity in the same unit of work, and immediately runs a new
// attempt so the order does not sit idle.
type RejectAssignmentCommandHandler struct {
	engine *AssignmentEngine
}

// NewRejectAssignmentCommandHandler creates the handler.
func NewRejectAssignmentCommandHandler(engine *AssignmentEngine) RejectAssignmentCommandHandler {
	return RejectAssignmentCommandHandler{engine: engine}
}

// Handle processes the command. Once the rejection commits, a failing follow-up
// attempt is only logged: the record is pending and the retry pass picks it up.
func (h RejectAssignmentCommandHandler) Handle(
	ctx context.Context,
	command RejectAssignmentCommand,
) (*assignment.Assignment, error) {
	if err := command.Validate(); err != nil {
		return nil, err
	}

	var rejected *assignment.Assignment
	err := h.engine.inTx(ctx, func(uow UoW) error {
		a, err := uow.AssignmentRepository().Get(ctx, command.OrderID())
		if err != nil {
			return err
		}
		if err := a.Reject(command.PartnerID(), command.Reason(), h.engine.now()); err != nil {
			return err
		}
		if err := uow.CapacityLedger().Release(ctx, command.PartnerID(), command.OrderID()); err != nil {
			return err
		}
		if err := uow.AssignmentRepository().Update(ctx, a); err != nil {
			return err
		}
		rejected = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.engine.logger.InfoContext(ctx, "assignment rejected",
		"orderId", command.OrderID(), "partnerId", command.PartnerID(), "reason", command.Reason())

	a, err := h.engine.Attempt(ctx, command.OrderID())
	switch {
	case errors.Is(err, ErrNoCandidates), errors.Is(err, ErrExhausted):
		return a, nil
	case err != nil:
		h.engine.logger.ErrorContext(ctx, "re-attempt after rejection failed",
			"orderId", command.OrderID(), "error", err)
		return rejected, nil
	default:
		return a, nil
	}
}

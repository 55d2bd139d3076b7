package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/assignment"
)

// CancelAssignmentCommandHandler cancels an order at any non-terminal state.
// A held partner is released exactly as a lease expiry would release it.
// Cancelling a delivered, cancelled or failed assignment is a no-op that
// returns the record unchanged.
type CancelAssignmentCommandHandler struct {
	engine *AssignmentEngine
}

// NewCancelAssignmentCommandHandler creates the handler.
func NewCancelAssignmentCommandHandler(engine *AssignmentEngine) CancelAssignmentCommandHandler {
	return CancelAssignmentCommandHandler{engine: engine}
}

// Handle processes the command.
func (h CancelAssignmentCommandHandler) Handle(
	ctx context.Context,
	command CancelAssignmentCommand,
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
		result = a
		if a.Status().IsTerminal() {
			return errNothingToDo
		}

		holder := a.AssignedTo()
		if err := a.Cancel(h.engine.now()); err != nil {
			return err
		}
		if holder != nil {
			if err := uow.CapacityLedger().Release(ctx, *holder, command.OrderID()); err != nil {
				return err
			}
		}
		return uow.AssignmentRepository().Update(ctx, a)
	})
	if errors.Is(err, errNothingToDo) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	h.engine.logger.InfoContext(ctx, "assignment cancelled", "orderId", command.OrderID())
	return result, nil
}

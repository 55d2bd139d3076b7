package commands

import (
	"context"

	"dispatch/internal/core/domain/model/assignment"
)

// DeliverOrderCommandHandler completes an in-transit order and frees the
// partner's capacity in the same unit of work.
type DeliverOrderCommandHandler struct {
	engine *AssignmentEngine
}

// NewDeliverOrderCommandHandler creates the handler.
func NewDeliverOrderCommandHandler(engine *AssignmentEngine) DeliverOrderCommandHandler {
	return DeliverOrderCommandHandler{engine: engine}
}

// Handle processes the command.
func (h DeliverOrderCommandHandler) Handle(ctx context.Context, command DeliverOrderCommand) (*assignment.Assignment, error) {
	if err := command.Validate(); err != nil {
		return nil, err
	}

	return h.engine.progress(ctx, command.OrderID(), func(uow UoW, a *assignment.Assignment) error {
		if err := a.Deliver(command.PartnerID(), h.engine.now()); err != nil {
			return err
		}
		return uow.CapacityLedger().Release(ctx, command.PartnerID(), command.OrderID())
	})
}

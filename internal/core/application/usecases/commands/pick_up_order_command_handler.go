package commands

import (
	"context"

	"dispatch/internal/core/domain/model/assignment"
)

// PickUpOrderCommandHandler moves an accepted order to in_transit.
// Capacity is unchanged: the order keeps counting against the partner.
type PickUpOrderCommandHandler struct {
	engine *AssignmentEngine
}

// NewPickUpOrderCommandHandler creates the handler.
func NewPickUpOrderCommandHandler(engine *AssignmentEngine) PickUpOrderCommandHandler {
	return PickUpOrderCommandHandler{engine: engine}
}

// Handle processes the command.
func (h PickUpOrderCommandHandler) Handle(ctx context.Context, command PickUpOrderCommand) (*assignment.Assignment, error) {
	if err := command.Validate(); err != nil {
		return nil, err
	}

	return h.engine.progress(ctx, command.OrderID(), func(uow UoW, a *assignment.Assignment) error {
		return a.PickUp(command.PartnerID(), h.engine.now())
	})
}

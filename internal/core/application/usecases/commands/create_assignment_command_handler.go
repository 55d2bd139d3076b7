package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/pkg/errs"
)

// CreateAssignmentCommandHandler registers an order as a pending assignment and
// runs the first assignment attempt before returning.
//
// The pending record is committed before any external call, so a GeoIndex or
// store failure during the attempt leaves a clean pending record and the error
// is returned. Repeating the request for the same order never creates a second
// record: a pending one gets another attempt, any other state is returned as is.
//
// Example:
//
//	a, err := handler.Handle(ctx, cmd)
//	switch {
//	case err != nil:
//	    return err
//	case a.Status() == assignment.Pending:
//	    // no partner available yet, retried in the background
//	case a.Status() == assignment.Failed:
//	    // tell the customer
//	}
type CreateAssignmentCommandHandler struct {
	engine *AssignmentEngine
}

// NewCreateAssignmentCommandHandler creates the handler.
func NewCreateAssignmentCommandHandler(engine *AssignmentEngine) CreateAssignmentCommandHandler {
	return CreateAssignmentCommandHandler{engine: engine}
}

// Handle processes the command. ErrNoCandidates and ErrExhausted are not errors
// here: the returned assignment carries the pending or failed status.
func (h CreateAssignmentCommandHandler) Handle(
	ctx context.Context,
	command CreateAssignmentCommand,
) (*assignment.Assignment, error) {
	if err := command.Validate(); err != nil {
		return nil, err
	}

	if err := h.register(ctx, command.Order()); err != nil && !errors.Is(err, errs.ErrObjectAlreadyExists) {
		return nil, err
	}

	a, err := h.engine.Attempt(ctx, command.Order().OrderID)
	if errors.Is(err, ErrNoCandidates) || errors.Is(err, ErrExhausted) {
		return a, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (h CreateAssignmentCommandHandler) register(ctx context.Context, order OrderContext) error {
	policy := h.engine.Policy()
	radius := order.RadiusKm
	if radius == 0 {
		radius = policy.DefaultRadiusKm
	}
	maxAttempts := order.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = policy.DefaultMaxAttempts
	}

	a, err := assignment.NewAssignment(assignment.NewAssignmentParams{
		OrderID:            order.OrderID,
		CustomerID:         order.CustomerID,
		RestaurantID:       order.RestaurantID,
		RestaurantLocation: order.RestaurantLocation,
		CustomerLocation:   order.CustomerLocation,
		Summary:            order.Summary,
		Priority:           order.Priority,
		RadiusKm:           radius,
		MaxAttempts:        maxAttempts,
	}, h.engine.now())
	if err != nil {
		return err
	}

	err = h.engine.inTx(ctx, func(uow UoW) error {
		return uow.AssignmentRepository().Add(ctx, a)
	})
	if err != nil {
		return err
	}

	h.engine.logger.InfoContext(ctx, "assignment created",
		"orderId", a.OrderID(), "priority", a.Priority(), "radiusKm", a.RadiusKm())
	return nil
}

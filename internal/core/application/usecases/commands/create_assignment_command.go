package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrCreateAssignmentCommandIsNotConstructed = errors.New(
	"CreateAssignmentCommand must be created via NewCreateAssignmentCommand constructor",
)

// OrderContext is what the order-placement flow supplies for a new order.
// RadiusKm and MaxAttempts are optional; zero means the engine policy default.
type OrderContext struct {
	OrderID            string
	CustomerID         string
	RestaurantID       string
	RestaurantLocation kernel.Location
	CustomerLocation   kernel.Location
	Summary            assignment.OrderSummary
	Priority           int
	RadiusKm           float64
	MaxAttempts        int
}

// CreateAssignmentCommand asks the engine to register an order and immediately
// try to place it with a delivery partner.
//
// Example:
//
//	cmd, err := NewCreateAssignmentCommand(OrderContext{
//	    OrderID: "o-1", CustomerID: "c-1", RestaurantID: "r-1",
//	    RestaurantLocation: restaurant, CustomerLocation: customer,
//	    Summary: assignment.OrderSummary{TotalAmount: 420, ItemCount: 2},
//	})
//	if err != nil {
//	    return fmt.Errorf("invalid order context: %w", err)
//	}
//	a, err := handler.Handle(ctx, cmd)
type CreateAssignmentCommand struct { //nolint:recvcheck //using for validation
	order OrderContext

	guard guard.ConstructorGuard
}

// NewCreateAssignmentCommand validates the order context.
func NewCreateAssignmentCommand(order OrderContext) (CreateAssignmentCommand, error) {
	order.OrderID = strings.TrimSpace(order.OrderID)
	order.CustomerID = strings.TrimSpace(order.CustomerID)
	order.RestaurantID = strings.TrimSpace(order.RestaurantID)

	var errList []error
	if order.OrderID == "" {
		errList = append(errList, errs.NewValueIsRequiredError("orderId"))
	}
	if order.CustomerID == "" {
		errList = append(errList, errs.NewValueIsRequiredError("customerId"))
	}
	if order.RestaurantID == "" {
		errList = append(errList, errs.NewValueIsRequiredError("restaurantId"))
	}
	errList = append(errList,
		order.RestaurantLocation.Validate(),
		order.CustomerLocation.Validate(),
		order.Summary.Validate(),
	)
	if order.RadiusKm < 0 {
		errList = append(errList, errs.NewValueIsInvalidError("assignmentRadius"))
	}
	if order.MaxAttempts < 0 {
		errList = append(errList, errs.NewValueIsInvalidError("maxAssignmentAttempts"))
	}
	if err := errors.Join(errList...); err != nil {
		return CreateAssignmentCommand{}, err
	}

	return CreateAssignmentCommand{
		order: order,
		guard: guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateAssignmentCommand) Validate() error {
	return c.guard.Validate(ErrCreateAssignmentCommandIsNotConstructed)
}

// Order returns the validated order context.
func (c CreateAssignmentCommand) Order() OrderContext {
	return c.order
}

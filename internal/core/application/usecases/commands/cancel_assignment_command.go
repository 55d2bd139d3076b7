package commands

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

var ErrCancelAssignmentCommandIsNotConstructed = errors.New(
	"CancelAssignmentCommand must be created via NewCancelAssignmentCommand constructor",
)

// CancelAssignmentCommand is sent when the customer or restaurant cancels an order.
type CancelAssignmentCommand struct { //nolint:recvcheck //using for validation
	orderID string

	guard guard.ConstructorGuard
}

// NewCancelAssignmentCommand validates the order identifier.
func NewCancelAssignmentCommand(orderID string) (CancelAssignmentCommand, error) {
	id, err := requireID("orderId", orderID)
	if err != nil {
		return CancelAssignmentCommand{}, err
	}

	return CancelAssignmentCommand{
		orderID: id,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CancelAssignmentCommand) Validate() error {
	return c.guard.Validate(ErrCancelAssignmentCommandIsNotConstructed)
}

// OrderID returns the order being cancelled.
func (c CancelAssignmentCommand) OrderID() string {
	return c.orderID
}

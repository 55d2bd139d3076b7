package commands

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

var ErrPickUpOrderCommandIsNotConstructed = errors.New(
	"PickUpOrderCommand must be created via NewPickUpOrderCommand constructor",
)

// PickUpOrderCommand is sent by the partner client when the partner picks the order up at the restaurant.
type PickUpOrderCommand struct { //nolint:recvcheck //using for validation
	orderID   string
	partnerID string

	guard guard.ConstructorGuard
}

// NewPickUpOrderCommand validates that both identifiers are present.
func NewPickUpOrderCommand(orderID, partnerID string) (PickUpOrderCommand, error) {
	c := PickUpOrderCommand{guard: guard.NewConstructorGuard()}

	var errOrder, errPartner error
	c.orderID, errOrder = requireID("orderId", orderID)
	c.partnerID, errPartner = requireID("partnerId", partnerID)
	if err := errors.Join(errOrder, errPartner); err != nil {
		return PickUpOrderCommand{}, err
	}

	return c, nil
}

// Validate ensures the command was created through the constructor.
func (c PickUpOrderCommand) Validate() error {
	return c.guard.Validate(ErrPickUpOrderCommandIsNotConstructed)
}

// OrderID returns the order.
func (c PickUpOrderCommand) OrderID() string {
	return c.orderID
}

// PartnerID returns the partner carrying the order.
func (c PickUpOrderCommand) PartnerID() string {
	return c.partnerID
}

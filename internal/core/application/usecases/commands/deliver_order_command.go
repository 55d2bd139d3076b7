package commands

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

var ErrDeliverOrderCommandIsNotConstructed = errors.New(
	"DeliverOrderCommand must be created via NewDeliverOrderCommand constructor",
)

// DeliverOrderCommand is sent by the partner client when the partner hands the order to the customer.
type DeliverOrderCommand struct { //nolint:recvcheck //using for validation
	orderID   string
	partnerID string

	guard guard.ConstructorGuard
}

// NewDeliverOrderCommand validates that both identifiers are present.
func NewDeliverOrderCommand(orderID, partnerID string) (DeliverOrderCommand, error) {
	c := DeliverOrderCommand{guard: guard.NewConstructorGuard()}

	var errOrder, errPartner error
	c.orderID, errOrder = requireID("orderId", orderID)
	c.partnerID, errPartner = requireID("partnerId", partnerID)
	if err := errors.Join(errOrder, errPartner); err != nil {
		return DeliverOrderCommand{}, err
	}

	return c, nil
}

// Validate ensures the command was created through the constructor.
func (c DeliverOrderCommand) Validate() error {
	return c.guard.Validate(ErrDeliverOrderCommandIsNotConstructed)
}

// OrderID returns the order.
func (c DeliverOrderCommand) OrderID() string {
	return c.orderID
}

// PartnerID returns the partner carrying the order.
func (c DeliverOrderCommand) PartnerID() string {
	return c.partnerID
}

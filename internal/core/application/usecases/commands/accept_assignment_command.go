package commands

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

var ErrAcceptAssignmentCommandIsNotConstructed = errors.New(
	"AcceptAssignmentCommand must be created via NewAcceptAssignmentCommand constructor",
)

// AcceptAssignmentCommand is sent by the partner client when the lease holder takes an order.
type AcceptAssignmentCommand struct { //nolint:recvcheck //using for validation
	orderID   string
	partnerID string

	guard guard.ConstructorGuard
}

// NewAcceptAssignmentCommand validates that both identifiers are present.
func NewAcceptAssignmentCommand(orderID, partnerID string) (AcceptAssignmentCommand, error) {
	c := AcceptAssignmentCommand{guard: guard.NewConstructorGuard()}

	var errOrder, errPartner error
	c.orderID, errOrder = requireID("orderId", orderID)
	c.partnerID, errPartner = requireID("partnerId", partnerID)
	if err := errors.Join(errOrder, errPartner); err != nil {
		return AcceptAssignmentCommand{}, err
	}

	return c, nil
}

// Validate ensures the command was created through the constructor.
func (c AcceptAssignmentCommand) Validate() error {
	return c.guard.Validate(ErrAcceptAssignmentCommandIsNotConstructed)
}

// OrderID returns the order being accepted.
func (c AcceptAssignmentCommand) OrderID() string {
	return c.orderID
}

// PartnerID returns the accepting partner.
func (c AcceptAssignmentCommand) PartnerID() string {
	return c.partnerID
}

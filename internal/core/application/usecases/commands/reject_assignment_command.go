package commands

import (
	"errors"
	"strings"

	"dispatch/internal/pkg/guard"
)

var ErrRejectAssignmentCommandIsNotConstructed = errors.New(
	"RejectAssignmentCommand must be created via NewRejectAssignmentCommand constructor",
)

// RejectAssignmentCommand is sent by the partner client when the lease holder declines an order.
type RejectAssignmentCommand struct { //nolint:recvcheck //using for validation
	orderID   string
	partnerID string
	reason    string

	guard guard.ConstructorGuard
}

// NewRejectAssignmentCommand validates the identifiers. The reason is optional.
func NewRejectAssignmentCommand(orderID, partnerID, reason string) (RejectAssignmentCommand, error) {
	c := RejectAssignmentCommand{
		reason: strings.TrimSpace(reason),
		guard:  guard.NewConstructorGuard(),
	}

	var errOrder, errPartner error
	c.orderID, errOrder = requireID("orderId", orderID)
	c.partnerID, errPartner = requireID("partnerId", partnerID)
	if err := errors.Join(errOrder, errPartner); err != nil {
		return RejectAssignmentCommand{}, err
	}

	return c, nil
}

// Validate ensures the command was created through the constructor.
func (c RejectAssignmentCommand) Validate() error {
	return c.guard.Validate(ErrRejectAssignmentCommandIsNotConstructed)
}

// OrderID returns the order being declined.
func (c RejectAssignmentCommand) OrderID() string {
	return c.orderID
}

// PartnerID returns the declining partner.
func (c RejectAssignmentCommand) PartnerID() string {
	return c.partnerID
}

// Reason returns the optional free-text reason.
func (c RejectAssignmentCommand) Reason() string {
	return c.reason
}

package assignment

import (
	"fmt"
	"strings"

	"dispatch/internal/pkg/errs"
)

// Status represents the lifecycle state of an order assignment.
//
// State transitions:
//
//	pending ──reserve──> assigned ──accept──> accepted ──pickup──> in_transit ──deliver──> delivered
//	   ^  │                 │
//	   │  │                 │ reject / timeout
//	   │  └──exhausted──> failed
//	   └────────────────────┘
//
//	any non-terminal ──cancel──> cancelled
//
// delivered, cancelled and failed are terminal.
type Status int

const (
	// Unknown is the zero value and never a valid state.
	Unknown Status = iota
	// Pending assignments are waiting for a partner to be reserved.
	Pending
	// Assigned assignments are leased to one partner until timeoutAt.
	Assigned
	// Accepted assignments were taken by the lease holder.
	Accepted
	// InTransit assignments were picked up from the restaurant.
	InTransit
	// Delivered is terminal: the order reached the customer.
	Delivered
	// Cancelled is terminal: the customer or restaurant cancelled the order.
	Cancelled
	// Failed is terminal: the attempt budget ran out without a placement.
	Failed
)

// getStatusStrings maps every Status, Unknown included, to its wire name.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "unknown",
		Pending:   "pending",
		Assigned:  "assigned",
		Accepted:  "accepted",
		InTransit: "in_transit",
		Delivered: "delivered",
		Cancelled: "cancelled",
		Failed:    "failed",
	}
}

// getValidStatusStrings maps the wire names of valid states back to Status.
func getValidStatusStrings() map[string]Status {
	return map[string]Status{
		"pending":    Pending,
		"assigned":   Assigned,
		"accepted":   Accepted,
		"in_transit": InTransit,
		"delivered":  Delivered,
		"cancelled":  Cancelled,
		"failed":     Failed,
	}
}

// ParseStatus converts a persisted or transport value into a Status.
func ParseStatus(raw string) (Status, error) {
	s, ok := getValidStatusStrings()[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", raw))
	}
	return s, nil
}

// Validate checks if the Status value is one of the known states.
// Unknown (0) and out-of-range values are invalid.
func (s Status) Validate() error {
	if s <= Unknown || s > Failed {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the wire name of the status, "unknown" for invalid values.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled || s == Failed
}

// HoldsPartner reports whether a partner is attached to the assignment in
// this state and counted against that partner's capacity.
func (s Status) HoldsPartner() bool {
	return s == Assigned || s == Accepted || s == InTransit
}

// ActiveStatuses lists the states that hold a partner.
func ActiveStatuses() []Status {
	return []Status{Assigned, Accepted, InTransit}
}

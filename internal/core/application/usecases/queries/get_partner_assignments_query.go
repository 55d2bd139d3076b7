package queries

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

var ErrGetPartnerAssignmentsQueryIsNotConstructed = errors.New(
	"GetPartnerAssignmentsQuery must be created via NewGetPartnerAssignmentsQuery constructor",
)

// GetPartnerAssignmentsQuery lists what a partner currently has to act on:
// offers awaiting an answer (assigned) and orders already taken (accepted).
//
// Example:
//
//	query, _ := NewGetPartnerAssignmentsQuery("p-1")
//	offers, err := handler.Handle(ctx, query)
type GetPartnerAssignmentsQuery struct { //nolint:recvcheck //using for validation
	partnerID string

	guard guard.ConstructorGuard
}

// NewGetPartnerAssignmentsQuery creates the query for partnerID.
func NewGetPartnerAssignmentsQuery(partnerID string) (GetPartnerAssignmentsQuery, error) {
	id, err := requireID("partnerId", partnerID)
	if err != nil {
		return GetPartnerAssignmentsQuery{}, err
	}
	return GetPartnerAssignmentsQuery{partnerID: id, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetPartnerAssignmentsQuery) Validate() error {
	return q.guard.Validate(ErrGetPartnerAssignmentsQueryIsNotConstructed)
}

// PartnerID returns the requested partner.
func (q GetPartnerAssignmentsQuery) PartnerID() string {
	return q.partnerID
}

package queries

import (
	"context"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/ports"
)

// partnerVisibleStatuses are the states in which an order shows up on the partner's list.
var partnerVisibleStatuses = []assignment.Status{assignment.Assigned, assignment.Accepted}

// GetPartnerAssignmentsQueryHandler lists a partner's assigned and accepted orders, oldest first.
type GetPartnerAssignmentsQueryHandler struct {
	reader ports.AssignmentReader
}

// NewGetPartnerAssignmentsQueryHandler creates the handler.
func NewGetPartnerAssignmentsQueryHandler(reader ports.AssignmentReader) GetPartnerAssignmentsQueryHandler {
	return GetPartnerAssignmentsQueryHandler{reader: reader}
}

// Handle returns an empty slice, never nil, when the partner holds nothing.
func (h GetPartnerAssignmentsQueryHandler) Handle(
	ctx context.Context,
	query GetPartnerAssignmentsQuery,
) ([]AssignmentResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	held, err := h.reader.ListByPartner(ctx, query.PartnerID(), partnerVisibleStatuses)
	if err != nil {
		return nil, readError(err)
	}

	out := make([]AssignmentResponse, 0, len(held))
	for _, a := range held {
		out = append(out, NewAssignmentResponse(a))
	}
	return out, nil
}

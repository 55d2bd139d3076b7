package queries

import (
	"context"
	"errors"
	"strings"

	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

const storeDependency = "assignment store"

// GetAssignmentQueryHandler reads one assignment.
type GetAssignmentQueryHandler struct {
	reader ports.AssignmentReader
}

// NewGetAssignmentQueryHandler creates the handler.
func NewGetAssignmentQueryHandler(reader ports.AssignmentReader) GetAssignmentQueryHandler {
	return GetAssignmentQueryHandler{reader: reader}
}

// Handle returns the assignment or *errs.ObjectNotFoundError.
func (h GetAssignmentQueryHandler) Handle(ctx context.Context, query GetAssignmentQuery) (AssignmentResponse, error) {
	if err := query.Validate(); err != nil {
		return AssignmentResponse{}, err
	}

	a, err := h.reader.Get(ctx, query.OrderID())
	if err != nil {
		return AssignmentResponse{}, readError(err)
	}
	return NewAssignmentResponse(a), nil
}

// readError keeps not-found and cancellation errors and marks the rest as a store outage.
func readError(err error) error {
	if errors.Is(err, errs.ErrObjectNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, errs.ErrDependencyIsDegraded) {
		return err
	}
	return errs.NewDependencyError(storeDependency, err)
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

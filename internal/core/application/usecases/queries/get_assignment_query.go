// Package queries contains read operations over assignments.
// Queries never change state and read through ports.AssignmentReader.
package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrGetAssignmentQueryIsNotConstructed = errors.New(
	"GetAssignmentQuery must be created via NewGetAssignmentQuery constructor",
)

// GetAssignmentQuery retrieves the assignment of one order, including its
// per-attempt history and the candidates ranked on the last attempt.
//
// Example:
//
//	query, err := NewGetAssignmentQuery("o-1")
//	if err != nil {
//	    return err
//	}
//	resp, err := handler.Handle(ctx, query)
//	if errors.Is(err, errs.ErrObjectNotFound) {
//	    // unknown order
//	}
//	fmt.Println(resp.Status, resp.CustomerMessage)
type GetAssignmentQuery struct { //nolint:recvcheck //using for validation
	orderID string

	guard guard.ConstructorGuard
}

// NewGetAssignmentQuery creates the query for orderID.
func NewGetAssignmentQuery(orderID string) (GetAssignmentQuery, error) {
	id, err := requireID("orderId", orderID)
	if err != nil {
		return GetAssignmentQuery{}, err
	}
	return GetAssignmentQuery{orderID: id, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetAssignmentQuery) Validate() error {
	return q.guard.Validate(ErrGetAssignmentQueryIsNotConstructed)
}

// OrderID returns the requested order.
func (q GetAssignmentQuery) OrderID() string {
	return q.orderID
}

// AssignmentResponse is the read model of an assignment shared by queries and
// command results. Retryable and CustomerMessage let clients tell an order that
// is still being matched from one that has failed.
type AssignmentResponse struct {
	OrderID            string
	CustomerID         string
	RestaurantID       string
	RestaurantLocation kernel.Location
	CustomerLocation   kernel.Location
	Summary            assignment.OrderSummary
	Status             assignment.Status
	AssignedTo         *string
	TimeoutAt          *time.Time
	Priority           int
	CurrentAttempt     int
	MaxAttempts        int
	RadiusKm           float64
	Attempts           []assignment.Attempt
	Candidates         []assignment.Candidate
	Retryable          bool
	CustomerMessage    string
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewAssignmentResponse maps an aggregate to its read model.
func NewAssignmentResponse(a *assignment.Assignment) AssignmentResponse {
	return AssignmentResponse{
		OrderID:            a.OrderID(),
		CustomerID:         a.CustomerID(),
		RestaurantID:       a.RestaurantID(),
		RestaurantLocation: a.RestaurantLocation(),
		CustomerLocation:   a.CustomerLocation(),
		Summary:            a.Summary(),
		Status:             a.Status(),
		AssignedTo:         a.AssignedTo(),
		TimeoutAt:          a.TimeoutAt(),
		Priority:           a.Priority(),
		CurrentAttempt:     a.CurrentAttempt(),
		MaxAttempts:        a.MaxAttempts(),
		RadiusKm:           a.RadiusKm(),
		Attempts:           a.Attempts(),
		Candidates:         a.Candidates(),
		Retryable:          a.Retryable(),
		CustomerMessage:    a.CustomerMessage(),
		Version:            a.Version(),
		CreatedAt:          a.CreatedAt(),
		UpdatedAt:          a.UpdatedAt(),
	}
}

func requireID(paramName, value string) (string, error) {
	value = trim(value)
	if value == "" {
		return "", errs.NewValueIsRequiredError(paramName)
	}
	return value, nil
}

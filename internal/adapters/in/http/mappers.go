package http

import (
	"errors"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/generated/servers"
	"dispatch/internal/pkg/errs"
)

func toOrderContext(body servers.NewAssignment) (commands.OrderContext, error) {
	restaurant, restaurantErr := toLocation("restaurantLocation", body.RestaurantLocation)
	customer, customerErr := toLocation("customerLocation", body.CustomerLocation)
	if err := errors.Join(restaurantErr, customerErr); err != nil {
		return commands.OrderContext{}, err
	}

	return commands.OrderContext{
		OrderID:            body.OrderId,
		CustomerID:         body.CustomerId,
		RestaurantID:       body.RestaurantId,
		RestaurantLocation: restaurant,
		CustomerLocation:   customer,
		Summary: assignment.OrderSummary{
			TotalAmount:                     body.OrderSummary.TotalAmount,
			ItemCount:                       body.OrderSummary.ItemCount,
			SpecialInstructions:             deref(body.OrderSummary.SpecialInstructions),
			EstimatedPreparationTimeMinutes: body.OrderSummary.EstimatedPreparationTimeMinutes,
		},
		Priority:    deref(body.Priority),
		RadiusKm:    deref(body.AssignmentRadiusKm),
		MaxAttempts: deref(body.MaxAssignmentAttempts),
	}, nil
}

func toLocation(paramName string, l servers.Location) (kernel.Location, error) {
	loc, err := kernel.NewLocation(l.Latitude, l.Longitude)
	if err != nil {
		return kernel.Location{}, errs.NewValueIsInvalidErrorWithCause(paramName, err)
	}
	return loc.WithAddress(deref(l.Address)), nil
}

func toAssignment(r queries.AssignmentResponse) servers.Assignment {
	history := make([]servers.AttemptRecord, len(r.Attempts))
	for i, a := range r.Attempts {
		history[i] = servers.AttemptRecord{
			Attempt:     a.Number,
			PartnerId:   a.PartnerID,
			AssignedAt:  a.AssignedAt,
			Outcome:     servers.AttemptOutcome(a.Outcome.String()),
			RespondedAt: a.RespondedAt,
			Reason:      optional(a.Reason),
		}
	}

	candidates := make([]servers.Candidate, len(r.Candidates))
	for i, c := range r.Candidates {
		candidates[i] = servers.Candidate{
			PartnerId:  c.PartnerID,
			Score:      c.Score,
			DistanceKm: c.DistanceKm,
		}
	}

	return servers.Assignment{
		OrderId:            r.OrderID,
		CustomerId:         r.CustomerID,
		RestaurantId:       r.RestaurantID,
		RestaurantLocation: fromLocation(r.RestaurantLocation),
		CustomerLocation:   fromLocation(r.CustomerLocation),
		OrderSummary: servers.OrderSummary{
			TotalAmount:                     r.Summary.TotalAmount,
			ItemCount:                       r.Summary.ItemCount,
			SpecialInstructions:             optional(r.Summary.SpecialInstructions),
			EstimatedPreparationTimeMinutes: r.Summary.EstimatedPreparationTimeMinutes,
		},
		Status:                servers.AssignmentStatus(r.Status.String()),
		AssignedTo:            r.AssignedTo,
		TimeoutAt:             r.TimeoutAt,
		Priority:              r.Priority,
		CurrentAttempt:        r.CurrentAttempt,
		MaxAssignmentAttempts: r.MaxAttempts,
		AssignmentRadiusKm:    r.RadiusKm,
		AssignmentHistory:     history,
		Candidates:            candidates,
		Retryable:             r.Retryable,
		CustomerMessage:       r.CustomerMessage,
		Version:               r.Version,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func fromLocation(l kernel.Location) servers.Location {
	return servers.Location{
		Latitude:  l.Latitude(),
		Longitude: l.Longitude(),
		Address:   optional(l.Address()),
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

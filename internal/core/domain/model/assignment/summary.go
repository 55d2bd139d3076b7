package assignment

import (
	"errors"
	"math"
	"strings"

	"dispatch/internal/pkg/errs"
)

// OrderSummary is the denormalized order content shown to the partner with the offer.
type OrderSummary struct {
	TotalAmount                     float64
	ItemCount                       int
	SpecialInstructions             string
	EstimatedPreparationTimeMinutes *int
}

// Validate checks the summary values.
func (s OrderSummary) Validate() error {
	var errList []error
	if math.IsNaN(s.TotalAmount) || s.TotalAmount < 0 {
		errList = append(errList, errs.NewValueIsInvalidError("orderSummary.totalAmount"))
	}
	if s.ItemCount <= 0 {
		errList = append(errList, errs.NewValueIsInvalidError("orderSummary.itemCount"))
	}
	if s.EstimatedPreparationTimeMinutes != nil && *s.EstimatedPreparationTimeMinutes < 0 {
		errList = append(errList, errs.NewValueIsInvalidError("orderSummary.estimatedPreparationTime"))
	}
	return errors.Join(errList...)
}

func (s OrderSummary) normalized() OrderSummary {
	s.SpecialInstructions = strings.TrimSpace(s.SpecialInstructions)
	return s
}

// Candidate is one ranked partner recorded for observability on each reservation.
type Candidate struct {
	PartnerID  string  `json:"partnerId"`
	Score      int     `json:"score"`
	DistanceKm float64 `json:"distanceKm"`
}

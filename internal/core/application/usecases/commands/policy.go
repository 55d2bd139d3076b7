package commands

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/pkg/errs"
)

// Policy tunes the assignment attempt algorithm and the background passes.
type Policy struct {
	// LeaseDuration is how long a reserved partner has to answer.
	LeaseDuration time.Duration
	// DefaultMaxAttempts applies when a request does not set its own budget.
	DefaultMaxAttempts int
	// DefaultRadiusKm applies when a request does not set its own radius.
	DefaultRadiusKm float64
	// RadiusGrowthKm widens the radius of a pending assignment after a retry
	// finds no candidates. Zero keeps the radius fixed.
	RadiusGrowthKm float64
	// MaxRadiusKm caps radius widening.
	MaxRadiusKm float64
	// LocationMaxAge drops partners whose position is older. Zero disables the filter.
	LocationMaxAge time.Duration
	// ExcludeRejected skips partners that already declined the order.
	ExcludeRejected bool
	// RetryIdleAfter is how long a pending assignment sits before the retry pass picks it up.
	RetryIdleAfter time.Duration
	// BatchSize bounds how many records one sweep or retry pass processes.
	BatchSize int
}

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		LeaseDuration:      30 * time.Second,
		DefaultMaxAttempts: 3,
		DefaultRadiusKm:    5,
		RadiusGrowthKm:     0,
		MaxRadiusKm:        15,
		LocationMaxAge:     5 * time.Minute,
		ExcludeRejected:    true,
		RetryIdleAfter:     15 * time.Second,
		BatchSize:          100,
	}
}

// Validate checks the policy values.
func (p Policy) Validate() error {
	var errList []error
	if p.LeaseDuration <= 0 {
		errList = append(errList, errs.NewValueIsInvalidError("leaseDuration"))
	}
	if p.DefaultMaxAttempts <= 0 {
		errList = append(errList, errs.NewValueIsInvalidError("defaultMaxAttempts"))
	}
	if p.DefaultRadiusKm <= 0 {
		errList = append(errList, errs.NewValueIsInvalidError("defaultRadiusKm"))
	}
	if p.RadiusGrowthKm < 0 {
		errList = append(errList, errs.NewValueIsInvalidError("radiusGrowthKm"))
	}
	if p.RadiusGrowthKm > 0 && p.MaxRadiusKm < p.DefaultRadiusKm {
		errList = append(errList, errs.NewValueIsOutOfRangeErrorWithCause("maxRadiusKm", p.MaxRadiusKm, p.DefaultRadiusKm, "inf",
			fmt.Errorf("radiusGrowthKm is %v", p.RadiusGrowthKm)))
	}
	if p.LocationMaxAge < 0 {
		errList = append(errList, errs.NewValueIsInvalidError("locationMaxAge"))
	}
	if p.BatchSize <= 0 {
		errList = append(errList, errs.NewValueIsInvalidError("batchSize"))
	}
	return errors.Join(errList...)
}

package partner

import (
	"errors"
	"math"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrSnapshotIsNotConstructed is returned when a Snapshot was not built by NewSnapshot.
var ErrSnapshotIsNotConstructed = errors.New("Snapshot must be created via NewSnapshot constructor")

// Performance holds the rolling performance figures of a partner.
type Performance struct {
	// AcceptanceRate is the share of offers accepted, in percent [0..100].
	AcceptanceRate float64
	// AvgResponseTimeSeconds is the mean time to answer an offer.
	AvgResponseTimeSeconds float64
	// AvgDeliveryTimeMinutes is the mean pickup-to-drop time.
	AvgDeliveryTimeMinutes float64
}

// Validate checks the ranges of the performance figures.
func (p Performance) Validate() error {
	var errList []error
	if math.IsNaN(p.AcceptanceRate) || p.AcceptanceRate < 0 || p.AcceptanceRate > 100 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("acceptanceRate", p.AcceptanceRate, 0, 100))
	}
	if math.IsNaN(p.AvgResponseTimeSeconds) || p.AvgResponseTimeSeconds < 0 {
		errList = append(errList, errs.NewValueIsInvalidError("avgResponseTimeSeconds"))
	}
	if math.IsNaN(p.AvgDeliveryTimeMinutes) || p.AvgDeliveryTimeMinutes < 0 {
		errList = append(errList, errs.NewValueIsInvalidError("avgDeliveryTimeMinutes"))
	}
	return errors.Join(errList...)
}

// Snapshot is the read model of a delivery partner as reported by the
// location-tracking collaborator. The dispatch core consumes it but never
// writes partner locations.
type Snapshot struct { //nolint:recvcheck //using for validation
	id                  string
	location            kernel.Location
	reportedAt          time.Time
	status              AvailabilityStatus
	performance         Performance
	currentLoad         int
	maxConcurrentOrders int
	guard               guard.ConstructorGuard
}

// NewSnapshot validates and builds a Snapshot.
//
// Example:
//
//	loc, _ := kernel.NewLocation(12.98, 77.59)
//	snap, err := partner.NewSnapshot("p-1", loc, time.Now(), partner.Online,
//	    partner.Performance{AcceptanceRate: 92, AvgResponseTimeSeconds: 12}, 0, 2)
func NewSnapshot(
	id string,
	location kernel.Location,
	reportedAt time.Time,
	status AvailabilityStatus,
	performance Performance,
	currentLoad int,
	maxConcurrentOrders int,
) (Snapshot, error) {
	s := Snapshot{
		reportedAt:  reportedAt,
		performance: performance,
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		s.setID(id),
		s.setLocation(location),
		s.setStatus(status),
		performance.Validate(),
		s.setLoad(currentLoad, maxConcurrentOrders),
	); err != nil {
		return Snapshot{}, err
	}

	return s, nil
}

// Validate ensures the snapshot was created through NewSnapshot.
func (s Snapshot) Validate() error {
	return s.guard.Validate(ErrSnapshotIsNotConstructed)
}

// ID returns the partner identifier.
func (s Snapshot) ID() string { return s.id }

// Location returns the last reported position.
func (s Snapshot) Location() kernel.Location { return s.location }

// ReportedAt returns when the position was reported.
func (s Snapshot) ReportedAt() time.Time { return s.reportedAt }

// Status returns the reported availability.
func (s Snapshot) Status() AvailabilityStatus { return s.status }

// Performance returns the performance figures.
func (s Snapshot) Performance() Performance { return s.performance }

// CurrentLoad returns the number of orders leased to or carried by the partner.
func (s Snapshot) CurrentLoad() int { return s.currentLoad }

// MaxConcurrentOrders returns the capacity ceiling.
func (s Snapshot) MaxConcurrentOrders() int { return s.maxConcurrentOrders }

// HasCapacity reports whether one more order fits.
func (s Snapshot) HasCapacity() bool {
	return s.currentLoad < s.maxConcurrentOrders
}

// IsStale reports whether the position is older than maxAge at now.
// A non-positive maxAge disables the check.
func (s Snapshot) IsStale(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(s.reportedAt) > maxAge
}

// WithLoad returns a copy carrying authoritative load figures, typically from
// the capacity ledger. Values that would break the snapshot invariants are ignored.
func (s Snapshot) WithLoad(currentLoad, maxConcurrentOrders int) Snapshot {
	if currentLoad < 0 || maxConcurrentOrders <= 0 {
		return s
	}
	s.currentLoad = currentLoad
	s.maxConcurrentOrders = maxConcurrentOrders
	return s
}

func (s *Snapshot) setID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errs.NewValueIsRequiredError("partnerId")
	}
	s.id = id
	return nil
}

func (s *Snapshot) setLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}
	s.location = location
	return nil
}

func (s *Snapshot) setStatus(status AvailabilityStatus) error {
	if err := status.Validate(); err != nil {
		return err
	}
	s.status = status
	return nil
}

func (s *Snapshot) setLoad(currentLoad, maxConcurrentOrders int) error {
	if maxConcurrentOrders <= 0 {
		return errs.NewValueIsInvalidError("maxConcurrentOrders")
	}
	if currentLoad < 0 {
		return errs.NewValueIsOutOfRangeError("currentLoad", currentLoad, 0, maxConcurrentOrders)
	}
	s.currentLoad = currentLoad
	s.maxConcurrentOrders = maxConcurrentOrders
	return nil
}

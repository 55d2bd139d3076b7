package partner

import (
	"fmt"
	"strings"

	"dispatch/internal/pkg/errs"
)

// AvailabilityStatus is the availability a delivery partner last reported.
type AvailabilityStatus string

const (
	// Online partners may receive new assignments.
	Online AvailabilityStatus = "online"
	// Offline partners are not working.
	Offline AvailabilityStatus = "offline"
	// Busy partners are working but declined new offers from their client.
	Busy AvailabilityStatus = "busy"
	// Break partners are temporarily paused.
	Break AvailabilityStatus = "break"
)

// ParseAvailabilityStatus converts a raw value (case-insensitive) to an AvailabilityStatus.
func ParseAvailabilityStatus(raw string) (AvailabilityStatus, error) {
	s := AvailabilityStatus(strings.ToLower(strings.TrimSpace(raw)))
	if err := s.Validate(); err != nil {
		return "", err
	}
	return s, nil
}

// Validate reports whether s is one of the known statuses.
func (s AvailabilityStatus) Validate() error {
	switch s {
	case Online, Offline, Busy, Break:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause(
			"availability status is invalid",
			fmt.Errorf("%q is not a valid availability status", string(s)),
		)
	}
}

// String implements fmt.Stringer.
func (s AvailabilityStatus) String() string {
	return string(s)
}

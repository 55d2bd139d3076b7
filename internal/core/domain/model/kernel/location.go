package kernel

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

const (
	// LatitudeMin is the southernmost valid latitude in degrees.
	LatitudeMin = -90.0
	// LatitudeMax is the northernmost valid latitude in degrees.
	LatitudeMax = 90.0
	// LongitudeMin is the westernmost valid longitude in degrees.
	LongitudeMin = -180.0
	// LongitudeMax is the easternmost valid longitude in degrees.
	LongitudeMax = 180.0

	// EarthRadiusKm is the mean Earth radius used by the haversine formula.
	EarthRadiusKm = 6371.0
)

// ErrLocationIsNotConstructed is returned when attempting to use an improperly initialized Location.
var ErrLocationIsNotConstructed = errs.NewValueIsRequiredError(
	"location must be created via NewLocation constructor")

// Location is an immutable geographic point (WGS84 degrees) that may carry a
// free-text address. The zero value is invalid.
//
// Example:
//
//	restaurant, err := kernel.NewLocation(12.97, 77.59)
//	if err != nil {
//	    // handle validation error
//	}
//	restaurant = restaurant.WithAddress("MG Road, Bengaluru")
type Location struct { //nolint:recvcheck //using for validation
	lat     float64
	lon     float64
	address string
	guard   guard.ConstructorGuard
}

// NewLocation creates a Location after checking latitude is within [-90, 90]
// and longitude is within [-180, 180]. Both errors are reported together.
func NewLocation(lat, lon float64) (Location, error) {
	loc := Location{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(loc.setLatitude(lat), loc.setLongitude(lon)); err != nil {
		return Location{}, err
	}

	return loc, nil
}

// WithAddress returns a copy of the location carrying the given address.
func (l Location) WithAddress(address string) Location {
	l.address = strings.TrimSpace(address)
	return l
}

// Validate checks if the Location was created using NewLocation.
func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

// Latitude returns the latitude in degrees.
func (l Location) Latitude() float64 {
	return l.lat
}

// Longitude returns the longitude in degrees.
func (l Location) Longitude() float64 {
	return l.lon
}

// Address returns the optional free-text address ("" when absent).
func (l Location) Address() string {
	return l.address
}

// String returns "Location(lat,lon)".
func (l Location) String() string {
	return fmt.Sprintf("Location(%.6f,%.6f)", l.lat, l.lon)
}

// IsEqual compares coordinates only; addresses are ignored.
func (l Location) IsEqual(other Location) (bool, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return l.lat == other.lat && l.lon == other.lon, nil
}

// DistanceKm returns the great-circle distance between two locations in
// kilometers, computed with the haversine formula.
//
// Example:
//
//	a, _ := NewLocation(12.97, 77.59)
//	b, _ := NewLocation(12.98, 77.59)
//	d, _ := a.DistanceKm(b) // ≈ 1.11
func (l Location) DistanceKm(other Location) (float64, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	return HaversineKm(l.lat, l.lon, other.lat, other.lon), nil
}

// HaversineKm is the raw haversine distance between two coordinate pairs in degrees.
// Adapters use it where constructing Location values would be wasteful.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// setLatitude uses a pointer receiver so construction can validate in place.
func (l *Location) setLatitude(lat float64) error {
	if math.IsNaN(lat) || lat < LatitudeMin || lat > LatitudeMax {
		return errs.NewValueIsOutOfRangeError("latitude", lat, LatitudeMin, LatitudeMax)
	}

	l.lat = lat
	return nil
}

func (l *Location) setLongitude(lon float64) error {
	if math.IsNaN(lon) || lon < LongitudeMin || lon > LongitudeMax {
		return errs.NewValueIsOutOfRangeError("longitude", lon, LongitudeMin, LongitudeMax)
	}

	l.lon = lon
	return nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

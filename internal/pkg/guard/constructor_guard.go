// Package guard provides ConstructorGuard, a marker embedded in value objects,
// commands and queries to tell constructor-built instances from zero values.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when the caller passes a nil error.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard records whether the enclosing struct was created by its
// constructor. The zero value reports "not constructed".
//
// Example:
//
//	var ErrPointIsNotConstructed = errors.New("Location must be created via NewLocation")
//
//	type Location struct {
//	    lat, lon float64
//	    guard    guard.ConstructorGuard
//	}
//
//	func NewLocation(lat, lon float64) (Location, error) {
//	    return Location{lat: lat, lon: lon, guard: guard.NewConstructorGuard()}, nil
//	}
//
//	func (l Location) Validate() error {
//	    return l.guard.Validate(ErrPointIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard marked as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns nil for constructed guards. Otherwise it returns
// validationError, or ErrDefaultConstructorGuard when validationError is nil.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}

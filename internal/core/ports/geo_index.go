package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/partner"
)

// GeoIndex answers radius queries over the live partner pool maintained by
// the location-tracking collaborator.
type GeoIndex interface {
	// FindCandidates returns online partners whose last reported position lies
	// within radiusKm of center, nearest first. Recency is not guaranteed;
	// callers apply their own staleness policy.
	FindCandidates(ctx context.Context, center kernel.Location, radiusKm float64) ([]partner.Snapshot, error)
}

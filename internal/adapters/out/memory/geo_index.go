package memory

import (
	"cmp"
	"context"
	"math"
	"slices"
	"sync"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/partner"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// DefaultCellDegrees is roughly 1.1 km of latitude.
const DefaultCellDegrees = 0.01

const kmPerDegree = kernel.EarthRadiusKm * math.Pi / 180

var _ ports.GeoIndex = (*GeoIndex)(nil)

type cell struct {
	lat int
	lon int
}

type geoEntry struct {
	snapshot partner.Snapshot
	cell     cell
}

// GeoIndex buckets partner positions into a fixed lat/lon grid. A radius query
// visits only the cells overlapping the radius bounding box and then filters
// by exact haversine distance.
type GeoIndex struct {
	mu       sync.RWMutex
	cellDeg  float64
	cells    map[cell]map[string]struct{}
	partners map[string]geoEntry
}

// NewGeoIndex creates an index with the given cell size in degrees; a
// non-positive size selects DefaultCellDegrees.
func NewGeoIndex(cellDegrees float64) *GeoIndex {
	if cellDegrees <= 0 {
		cellDegrees = DefaultCellDegrees
	}
	return &GeoIndex{
		cellDeg:  cellDegrees,
		cells:    make(map[cell]map[string]struct{}),
		partners: make(map[string]geoEntry),
	}
}

// Upsert stores the latest snapshot of a partner.
func (g *GeoIndex) Upsert(s partner.Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.remove(s.ID())
	c := g.cellOf(s.Location().Latitude(), s.Location().Longitude())
	bucket, ok := g.cells[c]
	if !ok {
		bucket = make(map[string]struct{})
		g.cells[c] = bucket
	}
	bucket[s.ID()] = struct{}{}
	g.partners[s.ID()] = geoEntry{snapshot: s, cell: c}
	return nil
}

// Remove drops a partner from the index.
func (g *GeoIndex) Remove(partnerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.remove(partnerID)
}

// Len returns the number of indexed partners.
func (g *GeoIndex) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.partners)
}

func (g *GeoIndex) FindCandidates(
	ctx context.Context,
	center kernel.Location,
	radiusKm float64,
) ([]partner.Snapshot, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(radiusKm) || radiusKm < 0 {
		return nil, errs.NewValueIsInvalidError("radiusKm")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	type hit struct {
		snapshot partner.Snapshot
		distance float64
	}
	var hits []hit
	consider := func(id string) {
		s := g.partners[id].snapshot
		if s.Status() != partner.Online {
			return
		}
		d := kernel.HaversineKm(center.Latitude(), center.Longitude(), s.Location().Latitude(), s.Location().Longitude())
		if d <= radiusKm {
			hits = append(hits, hit{snapshot: s, distance: d})
		}
	}

	cells, ok := g.coveringCells(center, radiusKm)
	if ok {
		for _, c := range cells {
			for id := range g.cells[c] {
				consider(id)
			}
		}
	} else {
		for id := range g.partners {
			consider(id)
		}
	}

	slices.SortFunc(hits, func(a, b hit) int {
		return cmp.Or(cmp.Compare(a.distance, b.distance), cmp.Compare(a.snapshot.ID(), b.snapshot.ID()))
	})
	result := make([]partner.Snapshot, 0, len(hits))
	for _, h := range hits {
		result = append(result, h.snapshot)
	}
	return result, nil
}

// coveringCells lists the cells of the radius bounding box. It reports false
// when the box spans more cells than are occupied, in which case a full scan is cheaper.
func (g *GeoIndex) coveringCells(center kernel.Location, radiusKm float64) ([]cell, bool) {
	dLat := radiusKm / kmPerDegree
	latMin := math.Max(center.Latitude()-dLat, kernel.LatitudeMin)
	latMax := math.Min(center.Latitude()+dLat, kernel.LatitudeMax)

	widest := math.Max(math.Abs(latMin), math.Abs(latMax))
	cosLat := math.Cos(widest * math.Pi / 180)
	if cosLat < 1e-9 {
		return nil, false
	}
	dLon := dLat / cosLat
	if dLon >= 179 {
		return nil, false
	}

	r0 := int(math.Floor(latMin / g.cellDeg))
	r1 := int(math.Floor(latMax / g.cellDeg))
	c0 := int(math.Floor((center.Longitude() - dLon) / g.cellDeg))
	c1 := int(math.Floor((center.Longitude() + dLon) / g.cellDeg))
	if (r1-r0+1)*(c1-c0+1) > len(g.cells) {
		return nil, false
	}

	cells := make([]cell, 0, (r1-r0+1)*(c1-c0+1))
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			lon := normalizeLongitude((float64(c) + 0.5) * g.cellDeg)
			cells = append(cells, cell{lat: r, lon: int(math.Floor(lon / g.cellDeg))})
		}
	}
	return cells, true
}

func (g *GeoIndex) cellOf(lat, lon float64) cell {
	return cell{
		lat: int(math.Floor(lat / g.cellDeg)),
		lon: int(math.Floor(normalizeLongitude(lon) / g.cellDeg)),
	}
}

func (g *GeoIndex) remove(partnerID string) {
	e, ok := g.partners[partnerID]
	if !ok {
		return
	}
	delete(g.partners, partnerID)
	bucket := g.cells[e.cell]
	delete(bucket, partnerID)
	if len(bucket) == 0 {
		delete(g.cells, e.cell)
	}
}

// normalizeLongitude maps lon into [-180, 180).
func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

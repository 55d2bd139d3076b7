// Package redisgeo implements ports.GeoIndex on Redis. Partner positions live
// in one GEO sorted set; the rest of each snapshot lives in a hash per partner.
package redisgeo

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/partner"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

var _ ports.GeoIndex = (*GeoIndex)(nil)

const (
	// DefaultKeyPrefix namespaces every key written by the index.
	DefaultKeyPrefix = "dispatch:"

	positionsKey   = "partners:geo"
	snapshotPrefix = "partner:"

	fieldStatus         = "status"
	fieldReportedAt     = "reported_at"
	fieldAcceptanceRate = "acceptance_rate"
	fieldResponseTime   = "avg_response_time_s"
	fieldDeliveryTime   = "avg_delivery_time_min"
	fieldCurrentLoad    = "current_load"
	fieldMaxOrders      = "max_concurrent_orders"
)

// GeoIndex answers radius queries with GEOSEARCH.
type GeoIndex struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// Option configures a GeoIndex.
type Option func(*GeoIndex)

// WithLogger sets the logger used to report partner hashes that cannot be decoded.
func WithLogger(logger *slog.Logger) Option {
	return func(g *GeoIndex) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGeoIndex creates an index on client. An empty prefix selects DefaultKeyPrefix.
func NewGeoIndex(client redis.UniversalClient, prefix string, opts ...Option) *GeoIndex {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	g := &GeoIndex{client: client, prefix: prefix, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Upsert stores the partner's position and snapshot attributes atomically.
func (g *GeoIndex) Upsert(ctx context.Context, s partner.Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	perf := s.Performance()

	_, err := g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.GeoAdd(ctx, g.positions(), &redis.GeoLocation{
			Name:      s.ID(),
			Longitude: s.Location().Longitude(),
			Latitude:  s.Location().Latitude(),
		})
		pipe.HSet(ctx, g.snapshot(s.ID()), map[string]any{
			fieldStatus:         s.Status().String(),
			fieldReportedAt:     s.ReportedAt().UTC().Format(time.RFC3339Nano),
			fieldAcceptanceRate: perf.AcceptanceRate,
			fieldResponseTime:   perf.AvgResponseTimeSeconds,
			fieldDeliveryTime:   perf.AvgDeliveryTimeMinutes,
			fieldCurrentLoad:    s.CurrentLoad(),
			fieldMaxOrders:      s.MaxConcurrentOrders(),
		})
		return nil
	})
	return err
}

// Remove drops a partner from the index.
func (g *GeoIndex) Remove(ctx context.Context, partnerID string) error {
	_, err := g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, g.positions(), partnerID)
		pipe.Del(ctx, g.snapshot(partnerID))
		return nil
	})
	return err
}

// FindCandidates returns online partners within radiusKm of center, nearest
// first with ties broken by partner ID. Members whose hash is gone or corrupt
// are skipped.
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

	hits, err := g.client.GeoSearchLocation(ctx, g.positions(), &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  center.Longitude(),
			Latitude:   center.Latitude(),
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geosearch: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(hits))
	_, err = g.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, hit := range hits {
			cmds[i] = pipe.HGetAll(ctx, g.snapshot(hit.Name))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load partner snapshots: %w", err)
	}

	fields := make([]map[string]string, len(hits))
	for i, cmd := range cmds {
		fields[i] = cmd.Val()
	}
	return g.collect(ctx, hits, fields), nil
}

// collect decodes the hits that are online, nearest first with ties broken by
// partner ID. Members whose hash is gone are skipped; members whose hash
// cannot be decoded are logged and skipped.
func (g *GeoIndex) collect(ctx context.Context, hits []redis.GeoLocation, fields []map[string]string) []partner.Snapshot {
	type found struct {
		snapshot partner.Snapshot
		dist     float64
	}
	result := make([]found, 0, len(hits))
	for i, hit := range hits {
		if len(fields[i]) == 0 {
			continue
		}
		s, err := decodeSnapshot(hit, fields[i])
		if err != nil {
			g.logger.WarnContext(ctx, "skipping undecodable partner snapshot",
				"partnerId", hit.Name, "error", err)
			continue
		}
		if s.Status() != partner.Online {
			continue
		}
		result = append(result, found{snapshot: s, dist: hit.Dist})
	}

	slices.SortStableFunc(result, func(a, b found) int {
		return cmp.Or(cmp.Compare(a.dist, b.dist), cmp.Compare(a.snapshot.ID(), b.snapshot.ID()))
	})
	out := make([]partner.Snapshot, 0, len(result))
	for _, f := range result {
		out = append(out, f.snapshot)
	}
	return out
}

func (g *GeoIndex) positions() string {
	return g.prefix + positionsKey
}

func (g *GeoIndex) snapshot(partnerID string) string {
	return g.prefix + snapshotPrefix + partnerID
}

func decodeSnapshot(hit redis.GeoLocation, fields map[string]string) (partner.Snapshot, error) {
	status, err := partner.ParseAvailabilityStatus(fields[fieldStatus])
	if err != nil {
		return partner.Snapshot{}, err
	}
	reportedAt, err := time.Parse(time.RFC3339Nano, fields[fieldReportedAt])
	if err != nil {
		return partner.Snapshot{}, errs.NewValueIsInvalidErrorWithCause(fieldReportedAt, err)
	}
	loc, err := kernel.NewLocation(hit.Latitude, hit.Longitude)
	if err != nil {
		return partner.Snapshot{}, err
	}

	var d decoder
	perf := partner.Performance{
		AcceptanceRate:         d.float(fields, fieldAcceptanceRate),
		AvgResponseTimeSeconds: d.float(fields, fieldResponseTime),
		AvgDeliveryTimeMinutes: d.float(fields, fieldDeliveryTime),
	}
	load := d.int(fields, fieldCurrentLoad)
	maxOrders := d.int(fields, fieldMaxOrders)
	if d.err != nil {
		return partner.Snapshot{}, d.err
	}

	return partner.NewSnapshot(hit.Name, loc, reportedAt, status, perf, load, maxOrders)
}

// decoder parses numeric hash fields and keeps the first error.
type decoder struct {
	err error
}

func (d *decoder) float(fields map[string]string, key string) float64 {
	if d.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(fields[key], 64)
	if err != nil {
		d.err = errs.NewValueIsInvalidErrorWithCause(key, err)
	}
	return v
}

func (d *decoder) int(fields map[string]string, key string) int {
	if d.err != nil {
		return 0
	}
	v, err := strconv.Atoi(fields[key])
	if err != nil {
		d.err = errs.NewValueIsInvalidErrorWithCause(key, err)
	}
	return v
}

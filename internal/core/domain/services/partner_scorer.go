package services

import (
	"cmp"
	"math"
	"slices"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/partner"
)

// Ineligibility reasons reported by PartnerScorer.
const (
	ReasonAtCapacity   = "at capacity"
	ReasonNotAvailable = "not available"
	ReasonInvalid      = "invalid snapshot"
)

// Score weights. They sum to 100.
const (
	distanceWeight       = 40.0
	distancePenaltyPerKm = 4.0
	acceptanceWeight     = 25.0
	responseWeight       = 20.0
	responseWindowSec    = 30.0
	loadWeight           = 15.0
	loadPenaltyPerOrder  = 5.0
)

// Scored is the suitability of one partner for one pickup point.
type Scored struct {
	Partner    partner.Snapshot
	Score      int
	DistanceKm float64
	Eligible   bool
	Reason     string
}

// Candidate converts the score into the observability record kept on the assignment.
func (s Scored) Candidate() assignment.Candidate {
	return assignment.Candidate{
		PartnerID:  s.Partner.ID(),
		Score:      s.Score,
		DistanceKm: s.DistanceKm,
	}
}

// PartnerScorer ranks delivery partners for a restaurant pickup.
//
// Eligibility requires an online partner below capacity; ineligible partners
// score 0 and carry a reason. Eligible partners score up to 100:
//   - distance (0..40): 40 - 4 per great-circle km
//   - acceptance rate (0..25): rate% of 25
//   - responsiveness (0..20): 20 minus 20 per 30 s of average response time
//   - load (0..15): 15 - 5 per order already held
//
// Each term is clamped at 0 and the sum is rounded to the nearest integer.
// PartnerScorer is stateless and deterministic.
type PartnerScorer struct{}

// NewPartnerScorer creates a PartnerScorer.
func NewPartnerScorer() PartnerScorer {
	return PartnerScorer{}
}

// Score evaluates one partner against the restaurant location.
func (PartnerScorer) Score(snapshot partner.Snapshot, restaurant kernel.Location) Scored {
	if err := snapshot.Validate(); err != nil {
		return Scored{Partner: snapshot, Reason: ReasonInvalid}
	}

	distance, err := snapshot.Location().DistanceKm(restaurant)
	if err != nil {
		return Scored{Partner: snapshot, Reason: ReasonInvalid}
	}

	result := Scored{Partner: snapshot, DistanceKm: distance}
	switch {
	case snapshot.Status() != partner.Online:
		result.Reason = ReasonNotAvailable
		return result
	case !snapshot.HasCapacity():
		result.Reason = ReasonAtCapacity
		return result
	}

	perf := snapshot.Performance()
	rate := math.Min(math.Max(perf.AcceptanceRate, 0), 100)

	total := clampZero(distanceWeight-distance*distancePenaltyPerKm) +
		clampZero(rate/100*acceptanceWeight) +
		clampZero(responseWeight-perf.AvgResponseTimeSeconds/responseWindowSec*responseWeight) +
		clampZero(loadWeight-float64(snapshot.CurrentLoad())*loadPenaltyPerOrder)

	result.Score = int(math.Round(total))
	result.Eligible = true
	return result
}

// Rank scores every partner and returns the eligible ones ordered by score
// descending, then distance ascending, then partner ID ascending.
func (s PartnerScorer) Rank(snapshots []partner.Snapshot, restaurant kernel.Location) []Scored {
	ranked := make([]Scored, 0, len(snapshots))
	for _, snap := range snapshots {
		if scored := s.Score(snap, restaurant); scored.Eligible {
			ranked = append(ranked, scored)
		}
	}

	slices.SortStableFunc(ranked, func(a, b Scored) int {
		return cmp.Or(
			cmp.Compare(b.Score, a.Score),
			cmp.Compare(a.DistanceKm, b.DistanceKm),
			cmp.Compare(a.Partner.ID(), b.Partner.ID()),
		)
	})
	return ranked
}

// Candidates converts a ranking into the records kept on the assignment.
func Candidates(ranked []Scored) []assignment.Candidate {
	out := make([]assignment.Candidate, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.Candidate())
	}
	return out
}

func clampZero(v float64) float64 {
	return math.Max(0, v)
}

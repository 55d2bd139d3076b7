// Package services provides domain services that work across aggregates and
// read models of the dispatch core.
//
// The package includes:
//   - PartnerScorer: scores and ranks delivery-partner snapshots for a restaurant pickup
//
// Services here are pure: no I/O, no clocks, no randomness, so the same input
// always yields the same ranking.
package services

// Package partner holds the delivery-partner read models the dispatch core consumes:
// Snapshot (position, availability, performance and load as reported by the
// location-tracking collaborator) and Capacity (the ledger view of concurrent
// orders owned by this service).
package partner

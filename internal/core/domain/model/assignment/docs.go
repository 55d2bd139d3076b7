// Package assignment contains the OrderAssignment aggregate: the lifecycle of
// handing one order to one delivery partner at a time.
//
// An assignment starts pending, is leased to a partner for a bounded window
// (assigned), and is either accepted and carried to delivery, or returned to
// pending by a rejection or an expired lease so the next candidate can be tried.
// The attempt budget bounds retries; running out of it fails the assignment.
//
// Every transition is a method on Assignment that either succeeds completely or
// returns an *errs.InvalidTransitionError without touching state. The history
// log is append-only: a reservation opens an attempt and its answer is a second
// entry, so persistence adapters only ever insert rows (see PendingHistory).
// Transitions raise StatusChanged events that are published after commit.
package assignment

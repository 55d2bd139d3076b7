// Package memory provides in-process adapters for the dispatch core: an
// assignment store with a capacity ledger behind one mutex, and a grid-bucketed
// GeoIndex. They back single-replica deployments without Postgres/Redis and
// give tests a deterministic store.
//
// A unit of work holds the store mutex from Begin until Commit or Rollback and
// restores a copy taken at Begin on rollback, so every unit of work is atomic
// and serialized.
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/partner"
	"dispatch/internal/core/ports"
)

// ErrNoTransaction is returned by Commit/Rollback without a matching Begin.
var ErrNoTransaction = errors.New("memory: no active transaction")

// Store holds assignments and capacity rows.
type Store struct {
	mu          sync.Mutex
	assignments map[string]assignment.RestoreParams
	capacity    map[string]partner.Capacity
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		assignments: make(map[string]assignment.RestoreParams),
		capacity:    make(map[string]partner.Capacity),
	}
}

type storeState struct {
	assignments map[string]assignment.RestoreParams
	capacity    map[string]partner.Capacity
}

// snapshot copies the state; callers hold mu. Stored values are never mutated
// in place, so a shallow map copy is enough.
func (s *Store) snapshot() storeState {
	return storeState{
		assignments: maps.Clone(s.assignments),
		capacity:    maps.Clone(s.capacity),
	}
}

func (s *Store) restore(state storeState) {
	s.assignments = state.assignments
	s.capacity = state.capacity
}

// UnitOfWorkFactory creates units of work over one Store.
type UnitOfWorkFactory struct {
	store *Store
}

// NewUnitOfWorkFactory creates a factory.
func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

// Create returns a fresh unit of work.
func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork is a serialized transaction over the Store. Outside Begin/Commit
// each repository call locks the store on its own.
type UnitOfWork struct {
	store   *Store
	active  bool
	backup  storeState
	tracked []*assignment.Assignment
}

// Begin locks the store and remembers its state for rollback.
func (u *UnitOfWork) Begin(_ context.Context) error {
	if u.active {
		return nil
	}
	u.store.mu.Lock()
	u.backup = u.store.snapshot()
	u.active = true
	return nil
}

// Commit keeps the changes and unlocks the store.
func (u *UnitOfWork) Commit(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.active = false
	u.backup = storeState{}
	u.store.mu.Unlock()
	return nil
}

// Rollback restores the state taken at Begin and unlocks the store.
func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.store.restore(u.backup)
	u.active = false
	u.backup = storeState{}
	u.tracked = nil
	u.store.mu.Unlock()
	return nil
}

// AssignmentRepository returns the repository bound to this unit of work.
func (u *UnitOfWork) AssignmentRepository() ports.AssignmentRepository {
	return &AssignmentRepository{uow: u}
}

// CapacityLedger returns the ledger bound to this unit of work.
func (u *UnitOfWork) CapacityLedger() ports.CapacityLedger {
	return &CapacityLedger{uow: u}
}

// TrackAggregate registers an aggregate written through this unit of work.
func (u *UnitOfWork) TrackAggregate(a *assignment.Assignment) {
	if !slices.Contains(u.tracked, a) {
		u.tracked = append(u.tracked, a)
	}
}

// TrackedAggregates returns the aggregates written through this unit of work.
func (u *UnitOfWork) TrackedAggregates() []*assignment.Assignment {
	return slices.Clone(u.tracked)
}

// locked runs fn with the store locked, unless this unit of work already holds the lock.
func (u *UnitOfWork) locked(fn func(s *Store) error) error {
	if !u.active {
		u.store.mu.Lock()
		defer u.store.mu.Unlock()
	}
	return fn(u.store)
}

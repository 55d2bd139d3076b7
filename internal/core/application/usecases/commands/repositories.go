// Package commands contains business operations that modify assignment state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
package commands

import (
	"context"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// These abstractions ensure an assignment transition and its capacity ledger
// change commit or roll back together.
type (
	// TxManager handles transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// AssignmentRepoFactory provides access to the assignment repository within a transaction.
	AssignmentRepoFactory interface {
		AssignmentRepository() ports.AssignmentRepository
	}

	// CapacityLedgerFactory provides access to the capacity ledger within a transaction.
	CapacityLedgerFactory interface {
		CapacityLedger() ports.CapacityLedger
	}

	// AggregateTracker exposes the aggregates written in a unit of work.
	AggregateTracker interface {
		TrackedAggregates() []*assignment.Assignment
	}

	// UoW manages transactions across assignments and the capacity ledger.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   repo := uow.AssignmentRepository()
	//   ledger := uow.CapacityLedger()
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		AssignmentRepoFactory
		CapacityLedgerFactory
		AggregateTracker
	}

	// UoWFactory creates new unit of work instances.
	UoWFactory interface {
		Create() UoW
	}
)

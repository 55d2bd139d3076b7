package ports

import (
	"context"

	"dispatch/internal/core/domain/model/assignment"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
// This ensures proper isolation between concurrent operations.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary.
// It provides transaction control and tracks aggregate changes.
// Client code must explicitly manage transaction lifecycle.
type UnitOfWork interface {
	// Begin starts a new transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	// Returns error if no active transaction or commit fails.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction.
	// Returns error if no active transaction or rollback fails.
	Rollback(ctx context.Context) error

	// AssignmentRepository returns a repository bound to the current transaction.
	AssignmentRepository() AssignmentRepository

	// CapacityLedger returns a ledger bound to the current transaction.
	CapacityLedger() CapacityLedger

	// TrackedAggregates returns the assignments written through this unit of work,
	// so their domain events can be published after commit.
	TrackedAggregates() []*assignment.Assignment
}

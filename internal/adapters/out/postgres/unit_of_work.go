// Package postgres provides the GORM-based Unit of Work over the assignment
// store and the partner capacity ledger.
//
// An assignment transition and its ledger change always share one transaction:
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer uow.Rollback(ctx)
//
//	if err := uow.CapacityLedger().Reserve(ctx, partnerID, orderID, maxOrders); err != nil {
//	    return err
//	}
//	if err := uow.AssignmentRepository().Update(ctx, a); err != nil {
//	    return err
//	}
//	if err := uow.Commit(ctx); err != nil {
//	    return err
//	}
//
//	for _, a := range uow.TrackedAggregates() {
//	    publish(a.DomainEvents())
//	}
//
// Concurrency Considerations:
//   - Each UnitOfWork instance owns at most one transaction
//   - Multiple goroutines should use separate UnitOfWork instances
//   - Assignment writes are version-checked and ledger writes are conditional,
//     so the default READ COMMITTED isolation is sufficient
package postgres

import (
	"context"

	"dispatch/internal/adapters/out/postgres/assignmentrepo"
	"dispatch/internal/adapters/out/postgres/capacityrepo"
	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/ports"

	"gorm.io/gorm"
)

// GormUnitOfWorkFactory creates UnitOfWork instances using GORM database connections.
// Factory ensures each business operation gets a fresh unit of work instance
// with proper isolation from other concurrent operations.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work instances.
//
// Example:
//
//	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	if err != nil {
//	    log.Fatal("failed to connect database")
//	}
//	factory := NewGormUnitOfWorkFactory(db)
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create produces a new UnitOfWork instance with its own transaction state and
// aggregate tracking.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		trackedAggregates: make([]*assignment.Assignment, 0),
	}
}

// GormUnitOfWork coordinates one database transaction and tracks the
// assignments written through it, so their domain events can be published
// once the commit succeeded.
type GormUnitOfWork struct {
	db                *gorm.DB
	tx                *gorm.DB
	trackedAggregates []*assignment.Assignment
}

// Begin initiates a new database transaction for the unit of work.
// Multiple calls to Begin on the same instance are safe and will not create nested transactions.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	return nil
}

// Commit finalizes all changes made within the current transaction.
// Returns gorm.ErrInvalidTransaction if no transaction is active.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	if err != nil {
		uow.trackedAggregates = uow.trackedAggregates[:0]
	}
	return err
}

// Rollback discards all changes made within the current transaction and
// forgets the aggregates tracked in it.
// Returns gorm.ErrInvalidTransaction if no transaction is active, which makes
// a deferred Rollback after Commit harmless.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return err
}

// AssignmentRepository returns a repository bound to the current transaction,
// or to the main connection when none is active.
func (uow *GormUnitOfWork) AssignmentRepository() ports.AssignmentRepository {
	return assignmentrepo.NewGormAssignmentRepository(uow.conn(), uow)
}

// CapacityLedger returns a ledger bound to the current transaction,
// or to the main connection when none is active.
func (uow *GormUnitOfWork) CapacityLedger() ports.CapacityLedger {
	return capacityrepo.NewGormCapacityLedger(uow.conn())
}

// TrackAggregate registers an assignment written within this unit of work.
// Called by the repository on every successful Add and Update.
func (uow *GormUnitOfWork) TrackAggregate(aggregate *assignment.Assignment) {
	for _, tracked := range uow.trackedAggregates {
		if tracked == aggregate {
			return
		}
	}
	uow.trackedAggregates = append(uow.trackedAggregates, aggregate)
}

// TrackedAggregates returns the assignments written through this unit of work.
func (uow *GormUnitOfWork) TrackedAggregates() []*assignment.Assignment {
	return uow.trackedAggregates
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}

// NewAssignmentReader returns the read side used by queries, outside any transaction.
func NewAssignmentReader(db *gorm.DB) ports.AssignmentReader {
	return assignmentrepo.NewGormAssignmentRepository(db, nil)
}

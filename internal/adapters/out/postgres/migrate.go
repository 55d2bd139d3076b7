package postgres

import (
	"context"
	"fmt"

	"dispatch/internal/adapters/out/postgres/assignmentrepo"
	"dispatch/internal/adapters/out/postgres/capacityrepo"

	"gorm.io/gorm"
)

// Migrate creates or updates the assignment, history and capacity tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	err := db.WithContext(ctx).AutoMigrate(
		&assignmentrepo.AssignmentDTO{},
		&assignmentrepo.HistoryEntryDTO{},
		&capacityrepo.CapacityDTO{},
	)
	if err != nil {
		return fmt.Errorf("migrate dispatch schema: %w", err)
	}
	return nil
}

// Tables lists the tables owned by this package, children first.
func Tables() []string {
	return []string{
		assignmentrepo.HistoryEntryDTO{}.TableName(),
		assignmentrepo.AssignmentDTO{}.TableName(),
		capacityrepo.CapacityDTO{}.TableName(),
	}
}

package commands

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

var ErrReconcileCapacityCommandIsNotConstructed = errors.New(
	"ReconcileCapacityCommand must be created via NewReconcileCapacityCommand constructor",
)

// ReconcileCapacityCommand repairs partner capacity rows that drifted from the active assignments.
// This is a parameterless command triggered by a background job.
type ReconcileCapacityCommand struct {
	guard guard.ConstructorGuard
}

// NewReconcileCapacityCommand creates the command.
func NewReconcileCapacityCommand() ReconcileCapacityCommand {
	return ReconcileCapacityCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c ReconcileCapacityCommand) Validate() error {
	return c.guard.Validate(ErrReconcileCapacityCommandIsNotConstructed)
}

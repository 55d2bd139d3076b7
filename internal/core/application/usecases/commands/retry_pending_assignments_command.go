package commands

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

var ErrRetryPendingAssignmentsCommandIsNotConstructed = errors.New(
	"RetryPendingAssignmentsCommand must be created via NewRetryPendingAssignmentsCommand constructor",
)

// RetryPendingAssignmentsCommand re-attempts pending orders that have been idle for a while.
// This is a parameterless command triggered by a background job.
type RetryPendingAssignmentsCommand struct {
	guard guard.ConstructorGuard
}

// NewRetryPendingAssignmentsCommand creates the command.
func NewRetryPendingAssignmentsCommand() RetryPendingAssignmentsCommand {
	return RetryPendingAssignmentsCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c RetryPendingAssignmentsCommand) Validate() error {
	return c.guard.Validate(ErrRetryPendingAssignmentsCommandIsNotConstructed)
}

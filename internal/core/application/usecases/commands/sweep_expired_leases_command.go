package commands

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

var ErrSweepExpiredLeasesCommandIsNotConstructed = errors.New(
	"SweepExpiredLeasesCommand must be created via NewSweepExpiredLeasesCommand constructor",
)

// SweepExpiredLeasesCommand expires leases whose acceptance window has passed and re-attempts those orders.
// This is a parameterless command triggered by a background job.
type SweepExpiredLeasesCommand struct {
	guard guard.ConstructorGuard
}

// NewSweepExpiredLeasesCommand creates the command.
func NewSweepExpiredLeasesCommand() SweepExpiredLeasesCommand {
	return SweepExpiredLeasesCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c SweepExpiredLeasesCommand) Validate() error {
	return c.guard.Validate(ErrSweepExpiredLeasesCommandIsNotConstructed)
}

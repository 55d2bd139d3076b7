package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/pkg/errs"
)

// SweepExpiredLeasesCommandHandler is the timeout sweeper. For every assigned
// record whose lease has expired, highest priority first, it applies the timeout
// transition and releases the partner in one unit of work, then runs a new
// attempt for the order.
//
// It is safe to run concurrently with itself and with Accept/Reject on the same
// order: each timeout is a version compare-and-swap, and an actor that loses the
// race sees a version conflict or an invalid transition and skips the record.
type SweepExpiredLeasesCommandHandler struct {
	engine *AssignmentEngine
}

// NewSweepExpiredLeasesCommandHandler creates the handler.
func NewSweepExpiredLeasesCommandHandler(engine *AssignmentEngine) SweepExpiredLeasesCommandHandler {
	return SweepExpiredLeasesCommandHandler{engine: engine}
}

// Handle runs one sweep and returns the number of leases it expired.
// Per-record failures do not stop the sweep; they are joined into the error.
func (h SweepExpiredLeasesCommandHandler) Handle(ctx context.Context, command SweepExpiredLeasesCommand) (int, error) {
	if err := command.Validate(); err != nil {
		return 0, err
	}

	started := h.engine.now()
	expired, err := h.engine.uowFactory.Create().AssignmentRepository().
		ListExpired(ctx, started, h.engine.policy.BatchSize)
	if err != nil {
		return 0, storeError(err)
	}

	processed := 0
	var errList []error
	for _, candidate := range expired {
		if ctx.Err() != nil {
			errList = append(errList, ctx.Err())
			break
		}

		ok, err := h.expire(ctx, candidate.OrderID())
		if err != nil {
			errList = append(errList, err)
			continue
		}
		if !ok {
			continue
		}
		processed++

		if _, err := h.engine.Attempt(ctx, candidate.OrderID()); err != nil &&
			!errors.Is(err, ErrNoCandidates) && !errors.Is(err, ErrExhausted) {
			h.engine.logger.ErrorContext(ctx, "re-attempt after lease expiry failed",
				"orderId", candidate.OrderID(), "error", err)
		}
	}

	h.engine.metrics.ObserveSweep(processed, h.engine.now().Sub(started))
	return processed, errors.Join(errList...)
}

// expire applies the timeout transition. It reports false when another actor
// already moved the record on.
func (h SweepExpiredLeasesCommandHandler) expire(ctx context.Context, orderID string) (bool, error) {
	var partnerID string
	err := h.engine.inTx(ctx, func(uow UoW) error {
		a, err := uow.AssignmentRepository().Get(ctx, orderID)
		if err != nil {
			return err
		}
		holder := a.AssignedTo()
		if a.Status() != assignment.Assigned || holder == nil {
			return errNothingToDo
		}
		partnerID = *holder

		if err := a.Timeout(h.engine.now()); err != nil {
			return err
		}
		if err := uow.CapacityLedger().Release(ctx, partnerID, orderID); err != nil {
			return err
		}
		return uow.AssignmentRepository().Update(ctx, a)
	})

	switch {
	case err == nil:
		h.engine.logger.InfoContext(ctx, "lease expired", "orderId", orderID, "partnerId", partnerID)
		return true, nil
	case errors.Is(err, errNothingToDo),
		errors.Is(err, errs.ErrVersionIsInvalid),
		errors.Is(err, errs.ErrInvalidTransition):
		h.engine.logger.DebugContext(ctx, "lease already resolved", "orderId", orderID)
		return false, nil
	default:
		return false, err
	}
}

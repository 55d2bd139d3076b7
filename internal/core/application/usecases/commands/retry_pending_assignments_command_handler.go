package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/pkg/errs"
)

// RetryPendingAssignmentsCommandHandler re-attempts pending assignments that
// have been idle for Policy.RetryIdleAfter, highest priority first.
//
// When an attempt finds no candidates and Policy.RadiusGrowthKm is positive,
// the search radius is widened by that step, up to Policy.MaxRadiusKm, for the
// next pass. With the default zero growth the radius stays fixed.
type RetryPendingAssignmentsCommandHandler struct {
	engine *AssignmentEngine
}

// NewRetryPendingAssignmentsCommandHandler creates the handler.
func NewRetryPendingAssignmentsCommandHandler(engine *AssignmentEngine) RetryPendingAssignmentsCommandHandler {
	return RetryPendingAssignmentsCommandHandler{engine: engine}
}

// Handle runs one pass and returns the number of assignments that were reserved or failed.
func (h RetryPendingAssignmentsCommandHandler) Handle(
	ctx context.Context,
	command RetryPendingAssignmentsCommand,
) (int, error) {
	if err := command.Validate(); err != nil {
		return 0, err
	}

	policy := h.engine.policy
	idleSince := h.engine.now().Add(-policy.RetryIdleAfter)
	pending, err := h.engine.uowFactory.Create().AssignmentRepository().
		ListPendingIdle(ctx, idleSince, policy.BatchSize)
	if err != nil {
		return 0, storeError(err)
	}

	progressed := 0
	var errList []error
	for _, p := range pending {
		if ctx.Err() != nil {
			errList = append(errList, ctx.Err())
			break
		}

		a, err := h.engine.Attempt(ctx, p.OrderID())
		switch {
		case errors.Is(err, ErrNoCandidates):
			if err := h.widen(ctx, p.OrderID()); err != nil {
				errList = append(errList, err)
			}
		case errors.Is(err, ErrExhausted):
			progressed++
		case err != nil:
			errList = append(errList, err)
		case a != nil && a.Status() != assignment.Pending:
			progressed++
		}
	}

	return progressed, errors.Join(errList...)
}

func (h RetryPendingAssignmentsCommandHandler) widen(ctx context.Context, orderID string) error {
	policy := h.engine.policy
	if policy.RadiusGrowthKm <= 0 {
		return nil
	}

	var radius float64
	err := h.engine.inTx(ctx, func(uow UoW) error {
		a, err := uow.AssignmentRepository().Get(ctx, orderID)
		if err != nil {
			return err
		}
		if !a.WidenRadius(policy.RadiusGrowthKm, policy.MaxRadiusKm, h.engine.now()) {
			return errNothingToDo
		}
		radius = a.RadiusKm()
		return uow.AssignmentRepository().Update(ctx, a)
	})

	switch {
	case err == nil:
		h.engine.logger.InfoContext(ctx, "search radius widened", "orderId", orderID, "radiusKm", radius)
		return nil
	case errors.Is(err, errNothingToDo), errors.Is(err, errs.ErrVersionIsInvalid):
		return nil
	default:
		return err
	}
}

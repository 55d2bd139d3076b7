package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

var (
	_ ports.AssignmentRepository = (*AssignmentRepository)(nil)
	_ ports.AssignmentReader     = (*AssignmentRepository)(nil)
)

// AssignmentRepository stores assignments as restore parameters, so every Get
// hands out a fresh aggregate the way a database read would.
type AssignmentRepository struct {
	uow *UnitOfWork
}

// NewAssignmentReader returns a repository for read-only use outside a unit of work.
func NewAssignmentReader(store *Store) *AssignmentRepository {
	return &AssignmentRepository{uow: &UnitOfWork{store: store}}
}

func (r *AssignmentRepository) Add(_ context.Context, aggregate *assignment.Assignment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	err := r.uow.locked(func(s *Store) error {
		if _, ok := s.assignments[aggregate.OrderID()]; ok {
			return errs.NewObjectAlreadyExistsError("orderId", aggregate.OrderID(), nil)
		}
		params := toParams(aggregate, aggregate.History())
		params.Version = 1
		s.assignments[aggregate.OrderID()] = params
		return nil
	})
	if err != nil {
		return err
	}
	aggregate.MarkPersisted(1)
	r.uow.TrackAggregate(aggregate)
	return nil
}

func (r *AssignmentRepository) Update(_ context.Context, aggregate *assignment.Assignment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	next := aggregate.Version() + 1
	err := r.uow.locked(func(s *Store) error {
		stored, ok := s.assignments[aggregate.OrderID()]
		if !ok {
			return errs.NewObjectNotFoundError("orderId", aggregate.OrderID())
		}
		if stored.Version != aggregate.Version() {
			return errs.NewVersionIsInvalidError("version",
				fmt.Errorf("order %s is at version %d, not %d", aggregate.OrderID(), stored.Version, aggregate.Version()))
		}
		history := append(slices.Clone(stored.History), aggregate.PendingHistory()...)
		params := toParams(aggregate, history)
		params.Version = next
		s.assignments[aggregate.OrderID()] = params
		return nil
	})
	if err != nil {
		return err
	}
	aggregate.MarkPersisted(next)
	r.uow.TrackAggregate(aggregate)
	return nil
}

func (r *AssignmentRepository) Get(_ context.Context, orderID string) (*assignment.Assignment, error) {
	var params assignment.RestoreParams
	err := r.uow.locked(func(s *Store) error {
		p, ok := s.assignments[orderID]
		if !ok {
			return errs.NewObjectNotFoundError("orderId", orderID)
		}
		params = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignment.Restore(params)
}

func (r *AssignmentRepository) ListExpired(_ context.Context, now time.Time, limit int) ([]*assignment.Assignment, error) {
	return r.list(limit, func(p assignment.RestoreParams) bool {
		return p.Status == assignment.Assigned && p.TimeoutAt != nil && !p.TimeoutAt.After(now)
	})
}

func (r *AssignmentRepository) ListPendingIdle(
	_ context.Context,
	idleSince time.Time,
	limit int,
) ([]*assignment.Assignment, error) {
	return r.list(limit, func(p assignment.RestoreParams) bool {
		return p.Status == assignment.Pending && !p.UpdatedAt.After(idleSince)
	})
}

func (r *AssignmentRepository) ListHoldings(_ context.Context) ([]ports.Holding, error) {
	var holdings []ports.Holding
	err := r.uow.locked(func(s *Store) error {
		for _, p := range s.assignments {
			if p.Status.HoldsPartner() && p.AssignedTo != nil {
				holdings = append(holdings, ports.Holding{
					OrderID:   p.OrderID,
					PartnerID: *p.AssignedTo,
					Status:    p.Status,
				})
			}
		}
		return nil
	})
	slices.SortFunc(holdings, func(a, b ports.Holding) int {
		return cmp.Compare(a.OrderID, b.OrderID)
	})
	return holdings, err
}

func (r *AssignmentRepository) ListByPartner(
	_ context.Context,
	partnerID string,
	statuses []assignment.Status,
) ([]*assignment.Assignment, error) {
	var matched []assignment.RestoreParams
	err := r.uow.locked(func(s *Store) error {
		for _, p := range s.assignments {
			if p.AssignedTo != nil && *p.AssignedTo == partnerID && slices.Contains(statuses, p.Status) {
				matched = append(matched, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(matched, func(a, b assignment.RestoreParams) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.OrderID, b.OrderID))
	})
	return restoreAll(matched)
}

// list returns matching records, highest priority first, then oldest update.
func (r *AssignmentRepository) list(
	limit int,
	match func(p assignment.RestoreParams) bool,
) ([]*assignment.Assignment, error) {
	var matched []assignment.RestoreParams
	err := r.uow.locked(func(s *Store) error {
		for _, p := range s.assignments {
			if match(p) {
				matched = append(matched, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(matched, func(a, b assignment.RestoreParams) int {
		return cmp.Or(
			cmp.Compare(b.Priority, a.Priority),
			a.UpdatedAt.Compare(b.UpdatedAt),
			cmp.Compare(a.OrderID, b.OrderID),
		)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return restoreAll(matched)
}

func restoreAll(params []assignment.RestoreParams) ([]*assignment.Assignment, error) {
	result := make([]*assignment.Assignment, 0, len(params))
	for _, p := range params {
		a, err := assignment.Restore(p)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}

func toParams(a *assignment.Assignment, history []assignment.HistoryEntry) assignment.RestoreParams {
	return assignment.RestoreParams{
		NewAssignmentParams: assignment.NewAssignmentParams{
			OrderID:            a.OrderID(),
			CustomerID:         a.CustomerID(),
			RestaurantID:       a.RestaurantID(),
			RestaurantLocation: a.RestaurantLocation(),
			CustomerLocation:   a.CustomerLocation(),
			Summary:            a.Summary(),
			Priority:           a.Priority(),
			RadiusKm:           a.RadiusKm(),
			MaxAttempts:        a.MaxAttempts(),
		},
		Status:         a.Status(),
		AssignedTo:     a.AssignedTo(),
		TimeoutAt:      a.TimeoutAt(),
		CurrentAttempt: a.CurrentAttempt(),
		Candidates:     a.Candidates(),
		History:        history,
		Version:        a.Version(),
		CreatedAt:      a.CreatedAt(),
		UpdatedAt:      a.UpdatedAt(),
	}
}

package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/partner"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/clock"
	"dispatch/internal/pkg/errs"
)

var (
	// ErrNoCandidates means no eligible partner was found right now. The assignment
	// stays pending and no attempt was consumed; a later retry may succeed.
	ErrNoCandidates = errors.New("no eligible delivery partners")

	// ErrExhausted means the attempt budget ran out; the assignment is failed.
	ErrExhausted = errors.New("assignment attempts exhausted")
)

const (
	storeDependency = "assignment store"
	geoDependency   = "geo index"
)

// AssignmentEngine runs the assignment attempt algorithm shared by order
// creation, rejection, lease expiry and the pending retry pass:
//
//  1. Only pending assignments are attempted; a spent budget fails the assignment.
//  2. Partners around the restaurant are fetched from the GeoIndex.
//  3. Stale positions and partners that declined the order are dropped, and
//     ledger loads replace the reported ones.
//  4. Survivors are scored and ranked. No eligible partner means ErrNoCandidates
//     without consuming an attempt.
//  5. The best partner is reserved with a lease in one unit of work together
//     with its ledger entry; if the ledger refuses, the next one is tried.
//
// Every write is a compare-and-swap on the assignment version, so concurrent
// engines (API calls, overlapping sweeps, other replicas) cannot double-book.
type AssignmentEngine struct {
	uowFactory UoWFactory
	geo        ports.GeoIndex
	scorer     services.PartnerScorer
	publisher  ports.EventPublisher
	clock      clock.Clock
	policy     Policy
	metrics    Metrics
	logger     *slog.Logger
}

// EngineOption customizes an AssignmentEngine.
type EngineOption func(*AssignmentEngine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *AssignmentEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the engine metrics sink.
func WithMetrics(metrics Metrics) EngineOption {
	return func(e *AssignmentEngine) {
		if metrics != nil {
			e.metrics = metrics
		}
	}
}

// NewAssignmentEngine creates an engine over the given collaborators.
func NewAssignmentEngine(
	uowFactory UoWFactory,
	geo ports.GeoIndex,
	publisher ports.EventPublisher,
	clk clock.Clock,
	policy Policy,
	opts ...EngineOption,
) (*AssignmentEngine, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
	}
	if geo == nil {
		return nil, errs.NewValueIsRequiredError("geoIndex")
	}
	if publisher == nil {
		return nil, errs.NewValueIsRequiredError("publisher")
	}
	if clk == nil {
		return nil, errs.NewValueIsRequiredError("clock")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	e := &AssignmentEngine{
		uowFactory: uowFactory,
		geo:        geo,
		scorer:     services.NewPartnerScorer(),
		publisher:  publisher,
		clock:      clk,
		policy:     policy,
		metrics:    nopMetrics{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "assignment-engine")
	return e, nil
}

// Policy returns the engine policy.
func (e *AssignmentEngine) Policy() Policy {
	return e.policy
}

// Attempt runs one assignment attempt for orderID and returns the resulting state.
// ErrNoCandidates and ErrExhausted are returned together with the assignment.
func (e *AssignmentEngine) Attempt(ctx context.Context, orderID string) (*assignment.Assignment, error) {
	started := e.clock.Now()
	a, err := e.attempt(ctx, orderID)

	outcome := AttemptReserved
	switch {
	case errors.Is(err, ErrNoCandidates):
		outcome = AttemptNoCandidates
	case errors.Is(err, ErrExhausted):
		outcome = AttemptExhausted
	case err != nil:
		outcome = AttemptError
	case a != nil && a.Status() != assignment.Assigned:
		return a, nil
	}
	e.metrics.ObserveAttempt(outcome, e.clock.Now().Sub(started))
	return a, err
}

func (e *AssignmentEngine) attempt(ctx context.Context, orderID string) (*assignment.Assignment, error) {
	a, err := e.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if a.Status() != assignment.Pending {
		return a, nil
	}
	if !a.HasAttemptsLeft() {
		return e.exhaust(ctx, orderID)
	}

	snapshots, err := e.geo.FindCandidates(ctx, a.RestaurantLocation(), a.RadiusKm())
	if err != nil {
		return a, errs.NewDependencyError(geoDependency, err)
	}

	snapshots, err = e.prepare(ctx, a, snapshots)
	if err != nil {
		return a, err
	}

	ranked := e.scorer.Rank(snapshots, a.RestaurantLocation())
	if len(ranked) == 0 {
		e.logger.DebugContext(ctx, "no eligible partners", "orderId", orderID, "radiusKm", a.RadiusKm())
		return a, ErrNoCandidates
	}

	candidates := services.Candidates(ranked)
	for _, best := range ranked {
		reserved, err := e.reserve(ctx, orderID, best, candidates)
		if errors.Is(err, ports.ErrCapacityExceeded) {
			e.logger.InfoContext(ctx, "partner filled up before reservation",
				"orderId", orderID, "partnerId", best.Partner.ID())
			continue
		}
		if err != nil {
			return a, err
		}
		return reserved, nil
	}

	return a, ErrNoCandidates
}

// prepare applies the staleness and rejection filters and overlays ledger loads.
func (e *AssignmentEngine) prepare(
	ctx context.Context,
	a *assignment.Assignment,
	snapshots []partner.Snapshot,
) ([]partner.Snapshot, error) {
	now := e.clock.Now()
	rejected := map[string]struct{}{}
	if e.policy.ExcludeRejected {
		rejected = a.RejectedPartners()
	}

	kept := make([]partner.Snapshot, 0, len(snapshots))
	ids := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		if s.IsStale(now, e.policy.LocationMaxAge) {
			continue
		}
		if _, ok := rejected[s.ID()]; ok {
			continue
		}
		kept = append(kept, s)
		ids = append(ids, s.ID())
	}
	if len(kept) == 0 {
		return kept, nil
	}

	loads, err := e.uowFactory.Create().CapacityLedger().Loads(ctx, ids)
	if err != nil {
		return nil, storeError(err)
	}
	for i, s := range kept {
		if c, ok := loads[s.ID()]; ok {
			kept[i] = s.WithLoad(c.CurrentLoad, s.MaxConcurrentOrders())
		}
	}
	return kept, nil
}

func (e *AssignmentEngine) reserve(
	ctx context.Context,
	orderID string,
	best services.Scored,
	candidates []assignment.Candidate,
) (*assignment.Assignment, error) {
	var result *assignment.Assignment
	err := e.inTx(ctx, func(uow UoW) error {
		a, err := uow.AssignmentRepository().Get(ctx, orderID)
		if err != nil {
			return err
		}
		result = a
		if a.Status() != assignment.Pending {
			return errNothingToDo
		}

		partnerID := best.Partner.ID()
		if err := uow.CapacityLedger().Reserve(ctx, partnerID, orderID, best.Partner.MaxConcurrentOrders()); err != nil {
			return err
		}
		if err := a.Reserve(partnerID, e.policy.LeaseDuration, e.clock.Now(), candidates); err != nil {
			return err
		}
		return uow.AssignmentRepository().Update(ctx, a)
	})
	if errors.Is(err, errNothingToDo) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "order reserved",
		"orderId", orderID,
		"partnerId", best.Partner.ID(),
		"score", best.Score,
		"attempt", result.CurrentAttempt())
	return result, nil
}

func (e *AssignmentEngine) exhaust(ctx context.Context, orderID string) (*assignment.Assignment, error) {
	var result *assignment.Assignment
	err := e.inTx(ctx, func(uow UoW) error {
		a, err := uow.AssignmentRepository().Get(ctx, orderID)
		if err != nil {
			return err
		}
		result = a
		if a.Status() != assignment.Pending || a.HasAttemptsLeft() {
			return errNothingToDo
		}
		if err := a.Exhaust(e.clock.Now()); err != nil {
			return err
		}
		return uow.AssignmentRepository().Update(ctx, a)
	})
	if errors.Is(err, errNothingToDo) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	e.logger.WarnContext(ctx, "assignment failed: attempts exhausted",
		"orderId", orderID, "attempts", result.CurrentAttempt())
	return result, ErrExhausted
}

// load reads an assignment outside of any transaction.
func (e *AssignmentEngine) load(ctx context.Context, orderID string) (*assignment.Assignment, error) {
	a, err := e.uowFactory.Create().AssignmentRepository().Get(ctx, orderID)
	if err != nil {
		return nil, storeError(err)
	}
	return a, nil
}

// errNothingToDo aborts a unit of work that found the record already moved on.
var errNothingToDo = errors.New("nothing to do")

// inTx runs fn in a unit of work and, once committed, publishes the domain
// events of every aggregate written through it.
func (e *AssignmentEngine) inTx(ctx context.Context, fn func(uow UoW) error) error {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return errs.NewDependencyError(storeDependency, err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := fn(uow); err != nil {
		return storeError(err)
	}

	if err := uow.Commit(ctx); err != nil {
		return errs.NewDependencyError(storeDependency, err)
	}

	e.dispatchEvents(ctx, uow.TrackedAggregates())
	return nil
}

// dispatchEvents publishes committed events. Failures are logged: the state
// change is already durable and the order-status display re-reads it.
func (e *AssignmentEngine) dispatchEvents(ctx context.Context, aggregates []*assignment.Assignment) {
	var events []assignment.StatusChanged
	for _, a := range aggregates {
		events = append(events, a.DomainEvents()...)
		a.ClearDomainEvents()
	}
	if len(events) == 0 {
		return
	}

	for _, ev := range events {
		e.metrics.ObserveTransition(ev.From, ev.To)
	}
	if err := e.publisher.Publish(ctx, events...); err != nil {
		e.logger.ErrorContext(ctx, "failed to publish status events", "count", len(events), "error", err)
	}
}

func (e *AssignmentEngine) now() time.Time {
	return e.clock.Now()
}

// storeError keeps classified errors and marks everything else as a store outage.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errNothingToDo),
		errors.Is(err, errs.ErrObjectNotFound),
		errors.Is(err, errs.ErrObjectAlreadyExists),
		errors.Is(err, errs.ErrVersionIsInvalid),
		errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, errs.ErrDependencyIsDegraded),
		errors.Is(err, ports.ErrCapacityExceeded),
		errors.Is(err, context.Canceled):
		return err
	default:
		return errs.NewDependencyError(storeDependency, err)
	}
}

// progress applies a partner progress transition in one unit of work.
func (e *AssignmentEngine) progress(
	ctx context.Context,
	orderID string,
	step func(uow UoW, a *assignment.Assignment) error,
) (*assignment.Assignment, error) {
	var result *assignment.Assignment
	err := e.inTx(ctx, func(uow UoW) error {
		a, err := uow.AssignmentRepository().Get(ctx, orderID)
		if err != nil {
			return err
		}
		if err := step(uow, a); err != nil {
			return err
		}
		if err := uow.AssignmentRepository().Update(ctx, a); err != nil {
			return err
		}
		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "assignment progressed", "orderId", orderID, "status", result.Status().String())
	return result, nil
}

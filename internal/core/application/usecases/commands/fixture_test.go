package commands_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/partner"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/clock"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var (
	fast    = partner.Performance{AcceptanceRate: 100, AvgResponseTimeSeconds: 10}
	average = partner.Performance{AcceptanceRate: 80, AvgResponseTimeSeconds: 15}
	slow    = partner.Performance{AcceptanceRate: 50, AvgResponseTimeSeconds: 25}
)

// memoryUoWFactory adapts the memory unit of work factory to commands.UoWFactory.
type memoryUoWFactory struct {
	factory *memory.UnitOfWorkFactory
}

func (f memoryUoWFactory) Create() commands.UoW {
	return f.factory.Create()
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []assignment.StatusChanged
}

func (p *recordingPublisher) Publish(_ context.Context, events ...assignment.StatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) transitions(orderID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		if ev.OrderID == orderID {
			out = append(out, ev.From.String()+"->"+ev.To.String())
		}
	}
	return out
}

type fixture struct {
	t       *testing.T
	store   *memory.Store
	geo     *memory.GeoIndex
	clock   *clock.Manual
	events  *recordingPublisher
	engine  *commands.AssignmentEngine
	factory *memory.UnitOfWorkFactory
}

func newFixture(t *testing.T, policy commands.Policy) *fixture {
	t.Helper()
	store := memory.NewStore()
	factory := memory.NewUnitOfWorkFactory(store)
	f := &fixture{
		t:       t,
		store:   store,
		geo:     memory.NewGeoIndex(0),
		clock:   clock.NewManual(start),
		events:  &recordingPublisher{},
		factory: factory,
	}

	engine, err := commands.NewAssignmentEngine(
		memoryUoWFactory{factory: factory},
		f.geo,
		f.events,
		f.clock,
		policy,
		commands.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	f.engine = engine
	return f
}

func location(t *testing.T, lat, lon float64) kernel.Location {
	t.Helper()
	loc, err := kernel.NewLocation(lat, lon)
	require.NoError(t, err)
	return loc
}

// addPartner puts an online partner into the GeoIndex, reported now.
func (f *fixture) addPartner(id string, lat, lon float64, perf partner.Performance, load, maxLoad int) {
	f.t.Helper()
	f.addPartnerWithStatus(id, lat, lon, partner.Online, perf, load, maxLoad)
}

func (f *fixture) addPartnerWithStatus(
	id string,
	lat, lon float64,
	status partner.AvailabilityStatus,
	perf partner.Performance,
	load, maxLoad int,
) {
	f.t.Helper()
	s, err := partner.NewSnapshot(id, location(f.t, lat, lon), f.clock.Now(), status, perf, load, maxLoad)
	require.NoError(f.t, err)
	require.NoError(f.t, f.geo.Upsert(s))
}

func (f *fixture) order(orderID string) commands.OrderContext {
	return commands.OrderContext{
		OrderID:            orderID,
		CustomerID:         "c-1",
		RestaurantID:       "r-1",
		RestaurantLocation: location(f.t, 12.97, 77.59),
		CustomerLocation:   location(f.t, 12.99, 77.61),
		Summary:            assignment.OrderSummary{TotalAmount: 420, ItemCount: 2},
	}
}

func (f *fixture) create(orderID string) *assignment.Assignment {
	f.t.Helper()
	return f.createOrder(f.order(orderID))
}

func (f *fixture) createOrder(order commands.OrderContext) *assignment.Assignment {
	f.t.Helper()
	cmd, err := commands.NewCreateAssignmentCommand(order)
	require.NoError(f.t, err)
	a, err := commands.NewCreateAssignmentCommandHandler(f.engine).Handle(f.t.Context(), cmd)
	require.NoError(f.t, err)
	return a
}

func (f *fixture) get(orderID string) *assignment.Assignment {
	f.t.Helper()
	a, err := f.factory.Create().AssignmentRepository().Get(f.t.Context(), orderID)
	require.NoError(f.t, err)
	return a
}

func (f *fixture) capacity(partnerID string) partner.Capacity {
	f.t.Helper()
	loads, err := f.factory.Create().CapacityLedger().Loads(f.t.Context(), []string{partnerID})
	require.NoError(f.t, err)
	return loads[partnerID]
}

func (f *fixture) accept(orderID, partnerID string) (*assignment.Assignment, error) {
	f.t.Helper()
	cmd, err := commands.NewAcceptAssignmentCommand(orderID, partnerID)
	require.NoError(f.t, err)
	return commands.NewAcceptAssignmentCommandHandler(f.engine).Handle(f.t.Context(), cmd)
}

func (f *fixture) reject(orderID, partnerID, reason string) (*assignment.Assignment, error) {
	f.t.Helper()
	cmd, err := commands.NewRejectAssignmentCommand(orderID, partnerID, reason)
	require.NoError(f.t, err)
	return commands.NewRejectAssignmentCommandHandler(f.engine).Handle(f.t.Context(), cmd)
}

func (f *fixture) cancel(orderID string) (*assignment.Assignment, error) {
	f.t.Helper()
	cmd, err := commands.NewCancelAssignmentCommand(orderID)
	require.NoError(f.t, err)
	return commands.NewCancelAssignmentCommandHandler(f.engine).Handle(f.t.Context(), cmd)
}

func (f *fixture) pickUp(orderID, partnerID string) (*assignment.Assignment, error) {
	f.t.Helper()
	cmd, err := commands.NewPickUpOrderCommand(orderID, partnerID)
	require.NoError(f.t, err)
	return commands.NewPickUpOrderCommandHandler(f.engine).Handle(f.t.Context(), cmd)
}

func (f *fixture) deliver(orderID, partnerID string) (*assignment.Assignment, error) {
	f.t.Helper()
	cmd, err := commands.NewDeliverOrderCommand(orderID, partnerID)
	require.NoError(f.t, err)
	return commands.NewDeliverOrderCommandHandler(f.engine).Handle(f.t.Context(), cmd)
}

func (f *fixture) sweep() (int, error) {
	f.t.Helper()
	return commands.NewSweepExpiredLeasesCommandHandler(f.engine).
		Handle(f.t.Context(), commands.NewSweepExpiredLeasesCommand())
}

func (f *fixture) retry() (int, error) {
	f.t.Helper()
	return commands.NewRetryPendingAssignmentsCommandHandler(f.engine).
		Handle(f.t.Context(), commands.NewRetryPendingAssignmentsCommand())
}

func (f *fixture) reconcile() (int, error) {
	f.t.Helper()
	return commands.NewReconcileCapacityCommandHandler(f.engine).
		Handle(f.t.Context(), commands.NewReconcileCapacityCommand())
}

func assignedTo(t *testing.T, a *assignment.Assignment) string {
	t.Helper()
	require.NotNil(t, a.AssignedTo(), "assignment %s holds no partner (status %s)", a.OrderID(), a.Status())
	return *a.AssignedTo()
}

func outcomes(a *assignment.Assignment) []assignment.Outcome {
	var out []assignment.Outcome
	for _, h := range a.History() {
		out = append(out, h.Outcome)
	}
	return out
}

// Mocks for failure paths the memory adapters cannot produce.

type MockGeoIndex struct{ mock.Mock }

func (m *MockGeoIndex) FindCandidates(
	ctx context.Context,
	center kernel.Location,
	radiusKm float64,
) ([]partner.Snapshot, error) {
	args := m.Called(ctx, center, radiusKm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Snapshot), args.Error(1)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, events ...assignment.StatusChanged) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) AssignmentRepository() ports.AssignmentRepository {
	args := m.Called()
	return args.Get(0).(ports.AssignmentRepository)
}

func (m *MockUoW) CapacityLedger() ports.CapacityLedger {
	args := m.Called()
	return args.Get(0).(ports.CapacityLedger)
}

func (m *MockUoW) TrackedAggregates() []*assignment.Assignment {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*assignment.Assignment)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockAssignmentRepository struct{ mock.Mock }

func (m *MockAssignmentRepository) Add(ctx context.Context, a *assignment.Assignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAssignmentRepository) Update(ctx context.Context, a *assignment.Assignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAssignmentRepository) Get(ctx context.Context, orderID string) (*assignment.Assignment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assignment.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) ListExpired(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*assignment.Assignment, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*assignment.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) ListPendingIdle(
	ctx context.Context,
	idleSince time.Time,
	limit int,
) ([]*assignment.Assignment, error) {
	args := m.Called(ctx, idleSince, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*assignment.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) ListHoldings(ctx context.Context) ([]ports.Holding, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.Holding), args.Error(1)
}

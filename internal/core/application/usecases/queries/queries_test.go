package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type MockAssignmentReader struct {
	mock.Mock
}

func (m *MockAssignmentReader) Get(ctx context.Context, orderID string) (*assignment.Assignment, error) {
	args := m.Called(ctx, orderID)
	if a := args.Get(0); a != nil {
		return a.(*assignment.Assignment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAssignmentReader) ListByPartner(
	ctx context.Context,
	partnerID string,
	statuses []assignment.Status,
) ([]*assignment.Assignment, error) {
	args := m.Called(ctx, partnerID, statuses)
	if list := args.Get(0); list != nil {
		return list.([]*assignment.Assignment), args.Error(1)
	}
	return nil, args.Error(1)
}

func newAssignment(t *testing.T, orderID string, createdAt time.Time) *assignment.Assignment {
	t.Helper()
	restaurant, err := kernel.NewLocation(12.97, 77.59)
	require.NoError(t, err)
	customer, err := kernel.NewLocation(12.99, 77.61)
	require.NoError(t, err)

	a, err := assignment.NewAssignment(assignment.NewAssignmentParams{
		OrderID:            orderID,
		CustomerID:         "c-1",
		RestaurantID:       "r-1",
		RestaurantLocation: restaurant,
		CustomerLocation:   customer,
		Summary:            assignment.OrderSummary{TotalAmount: 420, ItemCount: 2},
		RadiusKm:           5,
		MaxAttempts:        3,
	}, createdAt)
	require.NoError(t, err)
	return a
}

type seeded struct {
	store *memory.Store
	repo  *memory.AssignmentRepository
}

func seed(t *testing.T) seeded {
	t.Helper()
	store := memory.NewStore()
	return seeded{store: store, repo: memory.NewAssignmentReader(store)}
}

func (s seeded) add(t *testing.T, a *assignment.Assignment) {
	t.Helper()
	require.NoError(t, s.repo.Add(t.Context(), a))
}

func (s seeded) save(t *testing.T, a *assignment.Assignment) {
	t.Helper()
	require.NoError(t, s.repo.Update(t.Context(), a))
}

func TestGetAssignmentQueryHandler(t *testing.T) {
	t.Run("returns history and candidates", func(t *testing.T) {
		// Arrange
		s := seed(t)
		a := newAssignment(t, "o-1", now)
		s.add(t, a)
		ranked := []assignment.Candidate{
			{PartnerID: "p-1", Score: 89, DistanceKm: 1.2},
			{PartnerID: "p-2", Score: 70, DistanceKm: 3.4},
		}
		require.NoError(t, a.Reserve("p-1", 30*time.Second, now, ranked))
		s.save(t, a)
		require.NoError(t, a.Reject("p-1", "too far", now.Add(5*time.Second)))
		s.save(t, a)

		handler := queries.NewGetAssignmentQueryHandler(s.repo)
		query, err := queries.NewGetAssignmentQuery(" o-1 ")
		require.NoError(t, err)

		// Act
		resp, err := handler.Handle(t.Context(), query)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "o-1", resp.OrderID)
		assert.Equal(t, assignment.Pending, resp.Status)
		assert.Nil(t, resp.AssignedTo)
		assert.Nil(t, resp.TimeoutAt)
		assert.Equal(t, 1, resp.CurrentAttempt)
		assert.True(t, resp.Retryable)
		assert.Equal(t, assignment.MessageSearching, resp.CustomerMessage)
		assert.Equal(t, ranked, resp.Candidates)
		require.Len(t, resp.Attempts, 1)
		assert.Equal(t, "p-1", resp.Attempts[0].PartnerID)
		assert.Equal(t, assignment.OutcomeRejected, resp.Attempts[0].Outcome)
		assert.Equal(t, "too far", resp.Attempts[0].Reason)
		assert.Equal(t, 3, resp.Version)
	})

	t.Run("failed assignment is not retryable", func(t *testing.T) {
		// Arrange
		s := seed(t)
		a := newAssignment(t, "o-2", now)
		s.add(t, a)
		for i := range 3 {
			at := now.Add(time.Duration(i) * time.Minute)
			require.NoError(t, a.Reserve("p-1", 30*time.Second, at, nil))
			require.NoError(t, a.Reject("p-1", "", at.Add(time.Second)))
		}
		require.NoError(t, a.Exhaust(now.Add(5*time.Minute)))
		s.save(t, a)

		handler := queries.NewGetAssignmentQueryHandler(s.repo)
		query, err := queries.NewGetAssignmentQuery("o-2")
		require.NoError(t, err)

		// Act
		resp, err := handler.Handle(t.Context(), query)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, assignment.Failed, resp.Status)
		assert.False(t, resp.Retryable)
		assert.Equal(t, assignment.MessageFailed, resp.CustomerMessage)
		assert.Len(t, resp.Attempts, 3)
	})

	t.Run("unknown order is not found", func(t *testing.T) {
		handler := queries.NewGetAssignmentQueryHandler(seed(t).repo)
		query, err := queries.NewGetAssignmentQuery("missing")
		require.NoError(t, err)

		_, err = handler.Handle(t.Context(), query)

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("store failure is a dependency error", func(t *testing.T) {
		// Arrange
		reader := &MockAssignmentReader{}
		reader.On("Get", mock.Anything, "o-1").Return(nil, errors.New("connection refused")).Once()
		handler := queries.NewGetAssignmentQueryHandler(reader)
		query, err := queries.NewGetAssignmentQuery("o-1")
		require.NoError(t, err)

		// Act
		_, err = handler.Handle(t.Context(), query)

		// Assert
		require.ErrorIs(t, err, errs.ErrDependencyIsDegraded)
		var depErr *errs.DependencyError
		require.ErrorAs(t, err, &depErr)
		assert.Equal(t, "assignment store", depErr.Name)
		reader.AssertExpectations(t)
	})

	t.Run("query must be constructed", func(t *testing.T) {
		_, err := queries.NewGetAssignmentQuery("  ")
		require.ErrorIs(t, err, errs.ErrValueIsRequired)

		handler := queries.NewGetAssignmentQueryHandler(seed(t).repo)
		_, err = handler.Handle(t.Context(), queries.GetAssignmentQuery{})
		require.ErrorIs(t, err, queries.ErrGetAssignmentQueryIsNotConstructed)
	})
}

func TestGetPartnerAssignmentsQueryHandler(t *testing.T) {
	t.Run("lists assigned and accepted orders oldest first", func(t *testing.T) {
		// Arrange
		s := seed(t)
		older := newAssignment(t, "o-older", now)
		newer := newAssignment(t, "o-newer", now.Add(time.Minute))
		other := newAssignment(t, "o-other", now)
		delivered := newAssignment(t, "o-done", now)
		for _, a := range []*assignment.Assignment{newer, older, other, delivered} {
			s.add(t, a)
		}

		at := now.Add(2 * time.Minute)
		require.NoError(t, newer.Reserve("p-1", 30*time.Second, at, nil))
		require.NoError(t, older.Reserve("p-1", 30*time.Second, at, nil))
		require.NoError(t, older.Accept("p-1", at.Add(time.Second)))
		require.NoError(t, other.Reserve("p-2", 30*time.Second, at, nil))
		require.NoError(t, delivered.Reserve("p-1", 30*time.Second, at, nil))
		require.NoError(t, delivered.Accept("p-1", at))
		require.NoError(t, delivered.PickUp("p-1", at))
		require.NoError(t, delivered.Deliver("p-1", at))
		for _, a := range []*assignment.Assignment{newer, older, other, delivered} {
			s.save(t, a)
		}

		handler := queries.NewGetPartnerAssignmentsQueryHandler(s.repo)
		query, err := queries.NewGetPartnerAssignmentsQuery("p-1")
		require.NoError(t, err)

		// Act
		list, err := handler.Handle(t.Context(), query)

		// Assert
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "o-older", list[0].OrderID)
		assert.Equal(t, assignment.Accepted, list[0].Status)
		assert.Equal(t, "o-newer", list[1].OrderID)
		assert.Equal(t, assignment.Assigned, list[1].Status)
		require.NotNil(t, list[1].TimeoutAt)
		assert.Equal(t, at.Add(30*time.Second), *list[1].TimeoutAt)
	})

	t.Run("partner with nothing gets an empty list", func(t *testing.T) {
		handler := queries.NewGetPartnerAssignmentsQueryHandler(seed(t).repo)
		query, err := queries.NewGetPartnerAssignmentsQuery("p-9")
		require.NoError(t, err)

		list, err := handler.Handle(t.Context(), query)

		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("asks the store for holding statuses only", func(t *testing.T) {
		reader := &MockAssignmentReader{}
		reader.On("ListByPartner", mock.Anything, "p-1",
			[]assignment.Status{assignment.Assigned, assignment.Accepted}).
			Return(nil, context.Canceled).Once()
		handler := queries.NewGetPartnerAssignmentsQueryHandler(reader)
		query, err := queries.NewGetPartnerAssignmentsQuery("p-1")
		require.NoError(t, err)

		_, err = handler.Handle(t.Context(), query)

		require.ErrorIs(t, err, context.Canceled)
		require.NotErrorIs(t, err, errs.ErrDependencyIsDegraded)
		reader.AssertExpectations(t)
	})

	t.Run("query must be constructed", func(t *testing.T) {
		_, err := queries.NewGetPartnerAssignmentsQuery("")
		require.ErrorIs(t, err, errs.ErrValueIsRequired)

		handler := queries.NewGetPartnerAssignmentsQueryHandler(seed(t).repo)
		_, err = handler.Handle(t.Context(), queries.GetPartnerAssignmentsQuery{})
		require.ErrorIs(t, err, queries.ErrGetPartnerAssignmentsQueryIsNotConstructed)
	})
}

package jobs_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLeaseSweeper struct {
	mock.Mock
}

func (m *MockLeaseSweeper) Handle(ctx context.Context, command commands.SweepExpiredLeasesCommand) (int, error) {
	args := m.Called(ctx, command)
	return args.Int(0), args.Error(1)
}

type MockPendingRetrier struct {
	mock.Mock
}

func (m *MockPendingRetrier) Handle(ctx context.Context, command commands.RetryPendingAssignmentsCommand) (int, error) {
	args := m.Called(ctx, command)
	return args.Int(0), args.Error(1)
}

type MockCapacityReconciler struct {
	mock.Mock
}

func (m *MockCapacityReconciler) Handle(ctx context.Context, command commands.ReconcileCapacityCommand) (int, error) {
	args := m.Called(ctx, command)
	return args.Int(0), args.Error(1)
}

// syncBuffer is a log sink safe for use from cron goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func TestLeaseTimeoutJob_Run(t *testing.T) {
	logger, logs := newLogger()
	sweeper := &MockLeaseSweeper{}
	sweeper.On("Handle", mock.Anything, mock.AnythingOfType("commands.SweepExpiredLeasesCommand")).Return(2, nil).Once()
	sweeper.On("Handle", mock.Anything, mock.Anything).Return(0, errors.New("store down")).Once()

	job := jobs.NewLeaseTimeoutJob(sweeper, "* * * * * *", time.Second, logger)
	job.Run(context.Background())
	job.Run(context.Background())

	sweeper.AssertExpectations(t)
	assert.Contains(t, logs.String(), "Expired leases reclaimed")
	assert.Contains(t, logs.String(), "expired=2")
	assert.Contains(t, logs.String(), "store down")
	assert.Contains(t, logs.String(), "component=lease_timeout_job")
}

func TestPendingRetryJob_Run(t *testing.T) {
	logger, logs := newLogger()
	retrier := &MockPendingRetrier{}
	retrier.On("Handle", mock.Anything, mock.Anything).Return(0, nil).Once()

	jobs.NewPendingRetryJob(retrier, "* * * * * *", time.Second, logger).Run(context.Background())

	retrier.AssertExpectations(t)
	assert.NotContains(t, logs.String(), "Pending assignments progressed")
}

func TestCapacityReconcileJob_Run_WarnsOnDrift(t *testing.T) {
	logger, logs := newLogger()
	reconciler := &MockCapacityReconciler{}
	reconciler.On("Handle", mock.Anything, mock.Anything).Return(3, nil).Once()

	jobs.NewCapacityReconcileJob(reconciler, "0 * * * * *", time.Second, logger).Run(context.Background())

	reconciler.AssertExpectations(t)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "partners=3")
}

func TestLeaseTimeoutJob_RunsOnSchedule(t *testing.T) {
	logger, _ := newLogger()
	sweeper := &MockLeaseSweeper{}
	ran := make(chan struct{}, 10)
	sweeper.On("Handle", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { ran <- struct{}{} }).
		Return(0, nil)

	job := jobs.NewLeaseTimeoutJob(sweeper, "* * * * * *", time.Second, logger)
	require.NoError(t, job.Start())
	defer job.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("sweep did not run")
	}
}

func TestLeaseTimeoutJob_RunHasDeadline(t *testing.T) {
	logger, _ := newLogger()
	sweeper := &MockLeaseSweeper{}
	deadlines := make(chan bool, 10)
	sweeper.On("Handle", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			_, ok := args.Get(0).(context.Context).Deadline()
			deadlines <- ok
		}).
		Return(0, nil)

	job := jobs.NewLeaseTimeoutJob(sweeper, "* * * * * *", 500*time.Millisecond, logger)
	require.NoError(t, job.Start())
	defer job.Stop()

	select {
	case ok := <-deadlines:
		assert.True(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("sweep did not run")
	}
}

func TestJobManager_StartAll_InvalidScheduleStopsStartedJobs(t *testing.T) {
	logger, logs := newLogger()
	schedules := jobs.DefaultSchedules()
	schedules.Reconcile = "not a schedule"

	manager := jobs.NewJobManager(&MockLeaseSweeper{}, &MockPendingRetrier{}, &MockCapacityReconciler{}, schedules, logger)
	err := manager.StartAll()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "capacity reconcile")
	assert.Contains(t, logs.String(), "Lease timeout job stopped")
	assert.Contains(t, logs.String(), "Pending retry job stopped")
}

func TestJobManager_StartAndStop(t *testing.T) {
	logger, logs := newLogger()
	sweeper := &MockLeaseSweeper{}
	sweeper.On("Handle", mock.Anything, mock.Anything).Return(0, nil).Maybe()
	retrier := &MockPendingRetrier{}
	retrier.On("Handle", mock.Anything, mock.Anything).Return(0, nil).Maybe()
	reconciler := &MockCapacityReconciler{}
	reconciler.On("Handle", mock.Anything, mock.Anything).Return(0, nil).Maybe()

	manager := jobs.NewJobManager(sweeper, retrier, reconciler, jobs.DefaultSchedules(), logger)
	require.NoError(t, manager.StartAll())
	manager.StopAll()

	for _, line := range []string{
		"Lease timeout job started",
		"Pending retry job started",
		"Capacity reconcile job started",
		"Capacity reconcile job stopped",
	} {
		assert.Contains(t, logs.String(), line)
	}
}

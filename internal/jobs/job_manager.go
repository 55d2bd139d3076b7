package jobs

import (
	"fmt"
	"log/slog"
	"time"
)

// Schedules holds the cron expressions (with seconds) of the background jobs.
type Schedules struct {
	LeaseSweep   string
	PendingRetry string
	Reconcile    string
	// RunTimeout bounds every single run. Zero means no deadline.
	RunTimeout time.Duration
}

// DefaultSchedules sweeps every two seconds, retries every five and
// reconciles once a minute.
func DefaultSchedules() Schedules {
	return Schedules{
		LeaseSweep:   "*/2 * * * * *",
		PendingRetry: "*/5 * * * * *",
		Reconcile:    "0 * * * * *",
		RunTimeout:   30 * time.Second,
	}
}

type job interface {
	Start() error
	Stop()
}

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	leaseTimeoutJob      *LeaseTimeoutJob
	pendingRetryJob      *PendingRetryJob
	capacityReconcileJob *CapacityReconcileJob
}

// NewJobManager creates a new job manager with all required jobs.
// Takes command handlers as dependencies to wire up the job execution.
func NewJobManager(
	sweeper LeaseSweeper,
	retrier PendingRetrier,
	reconciler CapacityReconciler,
	schedules Schedules,
	logger *slog.Logger,
) *JobManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobManager{
		leaseTimeoutJob:      NewLeaseTimeoutJob(sweeper, schedules.LeaseSweep, schedules.RunTimeout, logger),
		pendingRetryJob:      NewPendingRetryJob(retrier, schedules.PendingRetry, schedules.RunTimeout, logger),
		capacityReconcileJob: NewCapacityReconcileJob(reconciler, schedules.Reconcile, schedules.RunTimeout, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start; jobs already started are stopped.
func (jm *JobManager) StartAll() error {
	named := []struct {
		name string
		job  job
	}{
		{"lease timeout", jm.leaseTimeoutJob},
		{"pending retry", jm.pendingRetryJob},
		{"capacity reconcile", jm.capacityReconcileJob},
	}

	started := make([]job, 0, len(named))
	for _, n := range named {
		if err := n.job.Start(); err != nil {
			for _, s := range started {
				s.Stop()
			}
			return fmt.Errorf("failed to start %s job: %w", n.name, err)
		}
		started = append(started, n.job)
	}
	return nil
}

// StopAll stops all scheduled jobs gracefully, waiting for running passes.
func (jm *JobManager) StopAll() {
	jm.leaseTimeoutJob.Stop()
	jm.pendingRetryJob.Stop()
	jm.capacityReconcileJob.Stop()
}

package jobs

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// LeaseSweeper expires overdue leases; satisfied by commands.SweepExpiredLeasesCommandHandler.
type LeaseSweeper interface {
	Handle(ctx context.Context, command commands.SweepExpiredLeasesCommand) (int, error)
}

// LeaseTimeoutJob is the timeout sweeper: on every tick it expires leases
// whose acceptance window has passed and re-attempts those orders.
type LeaseTimeoutJob struct {
	handler  LeaseSweeper
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewLeaseTimeoutJob creates the sweeper job for the given cron schedule (with seconds).
func NewLeaseTimeoutJob(handler LeaseSweeper, schedule string, timeout time.Duration, logger *slog.Logger) *LeaseTimeoutJob {
	logger = logger.With("component", "lease_timeout_job")
	return &LeaseTimeoutJob{
		handler:  handler,
		schedule: schedule,
		timeout:  timeout,
		cron:     newCron(logger),
		logger:   logger,
	}
}

// Start schedules the job.
func (j *LeaseTimeoutJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.tick); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Lease timeout job started", "schedule", j.schedule)
	return nil
}

// Stop stops the schedule and waits for a running pass to finish.
func (j *LeaseTimeoutJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Lease timeout job stopped")
}

// Run performs one sweep pass.
func (j *LeaseTimeoutJob) Run(ctx context.Context) {
	expired, err := j.handler.Handle(ctx, commands.NewSweepExpiredLeasesCommand())
	if err != nil {
		j.logger.ErrorContext(ctx, "Lease timeout job failed", "expired", expired, "error", err)
		return
	}
	if expired > 0 {
		j.logger.InfoContext(ctx, "Expired leases reclaimed", "expired", expired)
	}
}

func (j *LeaseTimeoutJob) tick() {
	ctx, cancel := runContext(j.timeout)
	defer cancel()
	j.Run(ctx)
}

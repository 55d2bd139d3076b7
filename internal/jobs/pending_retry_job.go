package jobs

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// PendingRetrier re-attempts idle pending assignments; satisfied by
// commands.RetryPendingAssignmentsCommandHandler.
type PendingRetrier interface {
	Handle(ctx context.Context, command commands.RetryPendingAssignmentsCommand) (int, error)
}

// PendingRetryJob gives orders that found no partner another attempt once
// they have been idle long enough.
type PendingRetryJob struct {
	handler  PendingRetrier
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewPendingRetryJob(handler PendingRetrier, schedule string, timeout time.Duration, logger *slog.Logger) *PendingRetryJob {
	logger = logger.With("component", "pending_retry_job")
	return &PendingRetryJob{
		handler:  handler,
		schedule: schedule,
		timeout:  timeout,
		cron:     newCron(logger),
		logger:   logger,
	}
}

func (j *PendingRetryJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.tick); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Pending retry job started", "schedule", j.schedule)
	return nil
}

func (j *PendingRetryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Pending retry job stopped")
}

// Run performs one retry pass.
func (j *PendingRetryJob) Run(ctx context.Context) {
	progressed, err := j.handler.Handle(ctx, commands.NewRetryPendingAssignmentsCommand())
	if err != nil {
		j.logger.ErrorContext(ctx, "Pending retry job failed", "progressed", progressed, "error", err)
		return
	}
	if progressed > 0 {
		j.logger.InfoContext(ctx, "Pending assignments progressed", "progressed", progressed)
	}
}

func (j *PendingRetryJob) tick() {
	ctx, cancel := runContext(j.timeout)
	defer cancel()
	j.Run(ctx)
}

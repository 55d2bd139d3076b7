package jobs

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// CapacityReconciler rebuilds the capacity ledger from assignment state;
// satisfied by commands.ReconcileCapacityCommandHandler.
type CapacityReconciler interface {
	Handle(ctx context.Context, command commands.ReconcileCapacityCommand) (int, error)
}

// CapacityReconcileJob periodically repairs partner load drift. Every repair
// is logged as a warning: drift means a write path lost a ledger update.
type CapacityReconcileJob struct {
	handler  CapacityReconciler
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewCapacityReconcileJob(
	handler CapacityReconciler,
	schedule string,
	timeout time.Duration,
	logger *slog.Logger,
) *CapacityReconcileJob {
	logger = logger.With("component", "capacity_reconcile_job")
	return &CapacityReconcileJob{
		handler:  handler,
		schedule: schedule,
		timeout:  timeout,
		cron:     newCron(logger),
		logger:   logger,
	}
}

func (j *CapacityReconcileJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.tick); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Capacity reconcile job started", "schedule", j.schedule)
	return nil
}

func (j *CapacityReconcileJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Capacity reconcile job stopped")
}

// Run performs one reconciliation pass.
func (j *CapacityReconcileJob) Run(ctx context.Context) {
	repaired, err := j.handler.Handle(ctx, commands.NewReconcileCapacityCommand())
	if err != nil {
		j.logger.ErrorContext(ctx, "Capacity reconcile job failed", "error", err)
		return
	}
	if repaired > 0 {
		j.logger.WarnContext(ctx, "Capacity ledger drift repaired", "partners", repaired)
	}
}

func (j *CapacityReconcileJob) tick() {
	ctx, cancel := runContext(j.timeout)
	defer cancel()
	j.Run(ctx)
}

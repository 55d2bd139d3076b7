// Package jobs provides scheduled background tasks for the dispatch service.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to drive the parts of the assignment lifecycle that no request triggers.
//
// # Available Jobs
//
// 1. LeaseTimeoutJob - expires leases past their acceptance window and re-attempts the order
// 2. PendingRetryJob - re-attempts orders left pending because no partner was available
// 3. CapacityReconcileJob - rebuilds partner loads from assignment state and repairs drift
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(sweepHandler, retryHandler, reconcileHandler, jobs.DefaultSchedules(), logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Scheduling
//
// Schedules are cron expressions with a leading seconds field. Every job
// skips a tick while its previous run is still going, so a slow store never
// piles up overlapping passes within one process. Passes running in other
// replicas are safe because every transition is a compare-and-swap.
//
// # Error Handling
//
// Failed passes are logged and retried on the next tick. Per-order failures
// inside a pass do not stop the remaining orders.
package jobs

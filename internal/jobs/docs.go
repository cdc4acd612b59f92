// Package jobs provides scheduled background tasks for the dispatch service.
//
// Jobs run on one github.com/robfig/cron/v3 scheduler owned by JobManager.
//
// # Available Jobs
//
//  1. LeaseSweepJob removes optimization leases whose TTL passed, so a crashed
//     optimization run does not leave a stale row behind. Redis expires its keys
//     on its own and reports nothing to sweep.
//  2. DiscrepancyAuditJob recomputes the previous day's cash summaries and
//     publishes the number of records in discrepancy as a gauge.
//
// # Usage
//
//	jobManager := jobs.NewJobManager(logger,
//		jobs.NewLeaseSweepJob(leases, ports.SystemClock, "@every 1m", logger),
//		jobs.NewDiscrepancyAuditJob(summaries, ports.SystemClock, "15 0 * * *", logger),
//	)
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// A failed run is logged and retried at the next tick. Panics are recovered by the
// scheduler and logged.
package jobs

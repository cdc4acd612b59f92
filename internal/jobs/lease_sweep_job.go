package jobs

import (
	"context"
	"time"

	"dispatch/internal/core/ports"

	"go.uber.org/zap"
)

// LeaseSweepJob deletes optimization leases left behind by crashed runs.
type LeaseSweepJob struct {
	leases   ports.LeaseManager
	clock    ports.Clock
	schedule string
	timeout  time.Duration
	logger   *zap.Logger
}

func NewLeaseSweepJob(leases ports.LeaseManager, clock ports.Clock, schedule string, logger *zap.Logger) *LeaseSweepJob {
	if schedule == "" {
		schedule = "@every 1m"
	}
	return &LeaseSweepJob{
		leases:   leases,
		clock:    clock,
		schedule: schedule,
		timeout:  30 * time.Second,
		logger:   logger.With(zap.String("component", "lease_sweep_job")),
	}
}

func (j *LeaseSweepJob) Name() string {
	return "lease-sweep"
}

func (j *LeaseSweepJob) Schedule() string {
	return j.schedule
}

func (j *LeaseSweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.Sweep(ctx); err != nil {
		j.logger.Error("lease sweep failed", zap.Error(err))
	}
}

// Sweep removes leases expired at the current clock time.
func (j *LeaseSweepJob) Sweep(ctx context.Context) (int, error) {
	removed, err := j.leases.SweepExpired(ctx, j.clock())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		j.logger.Info("expired optimization leases removed", zap.Int("removed", removed))
	}
	return removed, nil
}

package jobs

import (
	"context"
	"time"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/cash"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/metrics"

	"go.uber.org/zap"
)

// DiscrepancyAuditJob re-evaluates the previous day's cash records after the
// shift closed and reports the ones still out of tolerance.
type DiscrepancyAuditJob struct {
	summaries queries.GetDailySummaryQueryHandler
	clock     ports.Clock
	schedule  string
	timeout   time.Duration
	logger    *zap.Logger
}

func NewDiscrepancyAuditJob(
	summaries queries.GetDailySummaryQueryHandler,
	clock ports.Clock,
	schedule string,
	logger *zap.Logger,
) *DiscrepancyAuditJob {
	if schedule == "" {
		schedule = "15 0 * * *"
	}
	return &DiscrepancyAuditJob{
		summaries: summaries,
		clock:     clock,
		schedule:  schedule,
		timeout:   5 * time.Minute,
		logger:    logger.With(zap.String("component", "discrepancy_audit_job")),
	}
}

func (j *DiscrepancyAuditJob) Name() string {
	return "discrepancy-audit"
}

func (j *DiscrepancyAuditJob) Schedule() string {
	return j.schedule
}

func (j *DiscrepancyAuditJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	day := kernel.DateOf(j.clock()).AddDate(0, 0, -1)
	if _, err := j.Audit(ctx, day); err != nil {
		j.logger.Error("discrepancy audit failed", zap.String("date", kernel.FormatDate(day)), zap.Error(err))
	}
}

// Audit classifies every record of date and publishes the discrepancy count.
func (j *DiscrepancyAuditJob) Audit(ctx context.Context, date time.Time) ([]queries.DailySummaryLine, error) {
	query, err := queries.NewGetDailySummaryQuery(date, nil)
	if err != nil {
		return nil, err
	}
	lines, err := j.summaries.Handle(ctx, query)
	if err != nil {
		return nil, err
	}

	var flagged []queries.DailySummaryLine
	for _, line := range lines {
		if line.Summary.Status != cash.Discrepancy {
			continue
		}
		flagged = append(flagged, line)
		j.logger.Warn("cash discrepancy",
			zap.String("date", kernel.FormatDate(date)),
			zap.String("record_id", line.Record.ID().String()),
			zap.String("driver_id", line.Record.DriverID().String()),
			zap.Int64("expected", line.Summary.Expected),
			zap.Int64("collected", line.Summary.Collected),
			zap.Int64("discrepancy", line.Summary.Discrepancy),
		)
	}

	metrics.SetCashDiscrepancies(len(flagged))
	j.logger.Info("discrepancy audit finished",
		zap.String("date", kernel.FormatDate(date)),
		zap.Int("records", len(lines)),
		zap.Int("discrepancies", len(flagged)),
	)
	return flagged, nil
}

package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of scheduled work registered on the shared cron scheduler.
type Job interface {
	Name() string
	Schedule() string
	Run()
}

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	cron   *cron.Cron
	jobs   []Job
	logger *zap.Logger
}

// NewJobManager creates a job manager for jobs. Schedules use the standard five
// field cron syntax or descriptors such as "@every 1m", evaluated in UTC.
func NewJobManager(logger *zap.Logger, jobs ...Job) *JobManager {
	return &JobManager{
		cron:   cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.Recover(cronLogger{logger}))),
		jobs:   jobs,
		logger: logger.With(zap.String("component", "jobs")),
	}
}

// StartAll registers every job and starts the scheduler.
// Returns an error if any schedule is invalid, in which case nothing runs.
func (jm *JobManager) StartAll() error {
	for _, job := range jm.jobs {
		if _, err := jm.cron.AddJob(job.Schedule(), job); err != nil {
			return fmt.Errorf("failed to schedule %s job: %w", job.Name(), err)
		}
		jm.logger.Info("job scheduled", zap.String("job", job.Name()), zap.String("schedule", job.Schedule()))
	}

	jm.cron.Start()
	return nil
}

// StopAll stops the scheduler and waits for running jobs to return.
func (jm *JobManager) StopAll() {
	<-jm.cron.Stop().Done()
	jm.logger.Info("jobs stopped")
}

// cronLogger adapts zap to cron.Logger for the recover wrapper.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Sugar().Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs jobs on cron schedules in UTC. Schedules take a leading
// seconds field. A run still in progress causes the next tick to be skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	ctx    context.Context
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: logger,
		ctx:    context.Background(),
	}
}

// Register adds job under spec. It must be called before Run.
func (s *Scheduler) Register(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := job.Run(s.ctx); err != nil {
			s.logger.Error("scheduled job failed",
				"job", job.Name(),
				"error", err,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return
		}
		s.logger.Debug("scheduled job finished",
			"job", job.Name(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
	if err != nil {
		return fmt.Errorf("register job %s: %w", job.Name(), err)
	}
	s.logger.Info("scheduled job registered", "job", job.Name(), "schedule", spec)
	return nil
}

func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

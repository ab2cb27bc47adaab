package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

// SchedulerParams wires a Scheduler. Metrics is optional.
type SchedulerParams struct {
	Logger   *logger.Logger
	Lock     Lock
	Jobs     Jobs
	Metrics  *metrics.JobMetrics
	Interval time.Duration
}

// Scheduler runs every job once per interval while holding the lock.
type Scheduler struct {
	logg     *logger.Logger
	lock     Lock
	jobs     []Job
	metrics  *metrics.JobMetrics
	interval time.Duration
}

func NewScheduler(params SchedulerParams) (*Scheduler, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Lock == nil {
		return nil, errors.New("lock required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		logg:     params.Logger,
		lock:     params.Lock,
		jobs:     params.Jobs.active(),
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run executes a cycle immediately, then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "maintenance scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

// cycle reports whether this worker held the lock.
func (s *Scheduler) cycle(ctx context.Context) bool {
	held, err := s.lock.Acquire(ctx)
	if err != nil {
		s.logg.Error(ctx, "maintenance lock acquire failed", err)
		return false
	}
	if !held {
		s.logg.Info(ctx, "maintenance lock held elsewhere; skipping cycle")
		return false
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "maintenance lock release failed", err)
		}
	}()

	for _, job := range s.jobs {
		s.runJob(ctx, job)
	}
	return true
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	ctx = s.logg.WithField(ctx, "job", job.Name())
	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)

	s.metrics.Observe(job.Name(), elapsed, err)
	ctx = s.logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "maintenance job failed", err)
		return
	}
	s.logg.Info(ctx, "maintenance job completed")
}

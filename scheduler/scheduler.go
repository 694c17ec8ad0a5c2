package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Job is one complete scraping run
type Job func(ctx context.Context) error

// Scheduler re-runs a job on a fixed interval until its context is canceled
type Scheduler struct {
	every  time.Duration
	job    Job
	logger zerolog.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(every time.Duration, job Job, logger zerolog.Logger) (*Scheduler, error) {
	if every <= 0 {
		return nil, fmt.Errorf("interval must be positive: %s", every)
	}
	return &Scheduler{
		every:  every,
		job:    job,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Run runs the job immediately and then once per interval. Runs never overlap: while a run
// is in progress at most one tick is kept, so a run that outlasts the interval is followed
// by the next one right away. A failed run is logged and the next one still happens.
// Run returns when ctx is canceled and never starts a run on a canceled context.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	for run := 1; ; run++ {
		if ctx.Err() != nil {
			s.logger.Info().Msg("Scheduler stopped")
			return
		}
		s.runOnce(ctx, run)

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, run int) {
	start := time.Now()
	s.logger.Info().Int("run", run).Msg("Starting scheduled run")

	err := s.job(ctx)
	switch {
	case err == nil:
		s.logger.Info().Int("run", run).Dur("took", time.Since(start)).
			Time("next", start.Add(s.every)).Msg("Scheduled run finished")
	case errors.Is(err, context.Canceled):
		s.logger.Info().Int("run", run).Msg("Scheduled run canceled")
	default:
		s.logger.Error().Err(err).Int("run", run).Msg("Scheduled run failed")
	}
}

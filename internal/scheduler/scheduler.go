package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"slot-advisor/internal/config"
)

// Job is the close-of-day task. It receives the business day being closed.
type Job func(ctx context.Context, day time.Time) error

// Scheduler fires a job once per day at the store's closing time, aligned to
// the configured timezone.
type Scheduler struct {
	closeAt      time.Duration // offset from local midnight
	loc          *time.Location
	startupDelay time.Duration
	log          zerolog.Logger
}

// New builds a scheduler from configuration.
func New(cfg config.SchedulerConfig, log zerolog.Logger) (*Scheduler, error) {
	closeAt, err := config.ParseClock(cfg.CloseTime)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	return &Scheduler{
		closeAt:      closeAt,
		loc:          loc,
		startupDelay: cfg.StartupDelay,
		log:          log.With().Str("component", "scheduler").Logger(),
	}, nil
}

// NextRun returns the next firing instant strictly after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	local := now.In(s.loc)
	y, m, d := local.Date()
	fire := time.Date(y, m, d, 0, 0, 0, 0, s.loc).Add(s.closeAt)
	if !fire.After(local) {
		fire = fire.AddDate(0, 0, 1)
	}
	return fire
}

// Run blocks, invoking the job at each closing time until the context is
// cancelled. Job errors are logged, never fatal; the next day still runs.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	if s.startupDelay > 0 {
		s.log.Info().Dur("delay", s.startupDelay).Msg("起動待機中")
		select {
		case <-time.After(s.startupDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		next := s.NextRun(time.Now())
		s.log.Info().Time("next_run", next).Msg("次回実行を予約")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		day := businessDay(next)
		if err := job(ctx, day); err != nil {
			s.log.Error().Err(err).Time("day", day).Msg("日次処理に失敗")
		}
	}
}

// businessDay truncates a firing instant to its calendar date.
func businessDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

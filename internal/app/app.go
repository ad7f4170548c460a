package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"slot-advisor/internal/backtest"
	"slot-advisor/internal/config"
	"slot-advisor/internal/feedback"
	"slot-advisor/internal/ingest"
	"slot-advisor/internal/logging"
	"slot-advisor/internal/recommend"
	"slot-advisor/internal/scheduler"
	"slot-advisor/internal/service"
	"slot-advisor/internal/storage"
)

// App owns the wired object graph behind every CLI verb.
type App struct {
	cfg    *config.Config
	tables config.Tables
	log    zerolog.Logger

	store     *storage.Store
	assembler *recommend.Assembler
	service   *service.Service
	backtest  *backtest.Runner
	scheduler *scheduler.Scheduler
	loc       *time.Location
}

// New connects to the database and wires the engine.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewLogger(cfg.Logging)

	pool, err := storage.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	store := storage.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}

	tables := cfg.Tables()
	assembler := recommend.New(store, tables, cfg.Scoring, log)
	corrector := feedback.NewCorrector(cfg.Feedback, cfg.Scoring)
	source := ingest.NewFileSource(cfg.Ingest.SnapshotDir)

	svc := service.New(store, source, tables, assembler, corrector,
		cfg.Scheduler.AdvisoryLockKey, log)

	sched, err := scheduler.New(cfg.Scheduler, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	return &App{
		cfg:       cfg,
		tables:    tables,
		log:       log,
		store:     store,
		assembler: assembler,
		service:   svc,
		backtest:  backtest.NewRunner(store, tables, assembler, log),
		scheduler: sched,
		loc:       loc,
	}, nil
}

// Run blocks on the daily close-of-day loop until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.log.Info().Str("environment", a.cfg.App.Environment).Msg("常駐モード開始")
	return a.scheduler.Run(ctx, a.service.ProcessDay)
}

// Close releases held resources.
func (a *App) Close() {
	a.store.Close()
}

// parseDate reads "YYYY-MM-DD" in the store-local timezone; empty means
// yesterday (the most recent complete business day).
func (a *App) parseDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().In(a.loc)
		y, m, d := now.AddDate(0, 0, -1).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, a.loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

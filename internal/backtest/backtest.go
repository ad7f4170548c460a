package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"slot-advisor/internal/analysis"
	"slot-advisor/internal/config"
	"slot-advisor/internal/feedback"
	"slot-advisor/internal/recommend"
	"slot-advisor/internal/storage"
)

// Repo is the persistence surface the backtester reads from.
type Repo interface {
	recommend.Repo
	ListStoreDay(ctx context.Context, storeKey string, day time.Time) ([]storage.DayRecord, error)
}

// Metrics summarises how well the engine's picks matched reality over a
// replayed date range. A "pick" is any unit graded S or A; a pick scores
// when the realized day satisfies the hit predicate.
type Metrics struct {
	Days          int
	Picks         int
	PickHits      int
	ActualHits    int
	ObservedUnits int
}

// Precision is the share of picks that hit.
func (m Metrics) Precision() float64 { return ratio(m.PickHits, m.Picks) }

// Coverage is the share of actual hits the picks caught.
func (m Metrics) Coverage() float64 { return ratio(m.PickHits, m.ActualHits) }

// F1 is the harmonic mean of precision and coverage.
func (m Metrics) F1() float64 {
	p, c := m.Precision(), m.Coverage()
	if p+c == 0 {
		return 0
	}
	return 2 * p * c / (p + c)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Runner replays historical days through the assembler.
type Runner struct {
	repo      Repo
	tables    config.Tables
	assembler *recommend.Assembler
	log       zerolog.Logger
}

// NewRunner builds a backtest runner.
func NewRunner(repo Repo, tables config.Tables, assembler *recommend.Assembler, log zerolog.Logger) *Runner {
	return &Runner{
		repo:      repo,
		tables:    tables,
		assembler: assembler,
		log:       log.With().Str("component", "backtest").Logger(),
	}
}

// Run replays [from, to] for one store. Each day is scored using only the
// history before it, exactly as the nightly pass would have seen it, then
// compared against that day's realized records.
func (r *Runner) Run(ctx context.Context, storeKey string, from, to time.Time) (Metrics, error) {
	if to.Before(from) {
		return Metrics{}, fmt.Errorf("backtest range ends before it starts")
	}
	machine := r.tables.MachineFor(storeKey)

	var m Metrics
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		rec, err := r.assembler.Assemble(ctx, storeKey, day, recommend.ModeBatch)
		if err != nil {
			return Metrics{}, fmt.Errorf("assemble %s: %w", day.Format("2006-01-02"), err)
		}
		if rec.Empty {
			continue
		}

		rows, err := r.repo.ListStoreDay(ctx, storeKey, day)
		if err != nil {
			return Metrics{}, fmt.Errorf("load realized %s: %w", day.Format("2006-01-02"), err)
		}
		realized := make(map[string]analysis.DayFeatures, len(rows))
		for _, row := range rows {
			if !row.Scraped {
				continue
			}
			realized[row.UnitID] = analysis.ExtractDay(row, machine)
			m.ObservedUnits++
		}
		if len(realized) == 0 {
			continue
		}
		m.Days++

		for _, f := range realized {
			if feedback.GoodDay(f.Signal, f.NetMedals) {
				m.ActualHits++
			}
		}
		for _, u := range rec.Units {
			if !feedback.IsTopRank(string(u.Rank)) {
				continue
			}
			f, ok := realized[u.UnitID]
			if !ok {
				continue
			}
			m.Picks++
			if feedback.IsHit(string(u.Rank), f.Signal, f.NetMedals) {
				m.PickHits++
			}
		}
	}

	r.log.Info().
		Str("store", storeKey).
		Int("days", m.Days).
		Float64("precision", m.Precision()).
		Float64("coverage", m.Coverage()).
		Msg("バックテスト完了")
	return m, nil
}

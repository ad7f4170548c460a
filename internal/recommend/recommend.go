package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"slot-advisor/internal/analysis"
	"slot-advisor/internal/config"
	"slot-advisor/internal/pattern"
	"slot-advisor/internal/scoring"
	"slot-advisor/internal/storage"
)

// ErrUnknownStore indicates the store key has no configured profile.
var ErrUnknownStore = errors.New("recommend: unknown store")

// statsLookbackDays of history feed the store-level pattern statistics.
// Transition rates need more days than the scoring window to stabilise.
const statsLookbackDays = 56

// Mode selects the assembly policy for units without fresh data.
type Mode int

const (
	// ModeBatch keeps every configured unit in the output; units without
	// enough history are graded D.
	ModeBatch Mode = iota
	// ModeLive omits units whose latest day has not been scraped yet, so a
	// floor-walking reader never sees stale grades.
	ModeLive
)

// Repo is the persistence surface the assembler needs.
type Repo interface {
	ListStoreRange(ctx context.Context, storeKey string, from, to time.Time) ([]storage.DayRecord, error)
	GetCorrection(ctx context.Context, machineKey string) (storage.CorrectionRecord, error)
}

// Recommendation is one store's assembled ranking for a target date.
type Recommendation struct {
	StoreKey    string
	Date        time.Time
	Units       []scoring.Scored // score desc, unit id asc
	Empty       bool
	EmptyReason string

	// AsOf is the newest observed day feeding the ranking; SnapshotAgeDays
	// is its distance from the target date (1 = fresh, data through
	// yesterday). Findings note configured units the ranking could not see.
	AsOf            time.Time
	SnapshotAgeDays int
	Findings        []string
}

// Assembler turns history into per-store rankings.
type Assembler struct {
	repo   Repo
	tables config.Tables
	params scoring.Params
	window int
	log    zerolog.Logger
}

// New creates an assembler.
func New(repo Repo, tables config.Tables, sc config.ScoringConfig, log zerolog.Logger) *Assembler {
	return &Assembler{
		repo:   repo,
		tables: tables,
		params: scoring.ParamsFrom(sc),
		window: sc.WindowDays,
		log:    log.With().Str("component", "recommend").Logger(),
	}
}

// Assemble builds the ranking for storeKey on date. History strictly before
// the target date feeds the scores; the target day itself is never an input
// to its own recommendation.
func (a *Assembler) Assemble(ctx context.Context, storeKey string, date time.Time, mode Mode) (Recommendation, error) {
	profile, ok := a.tables.Store(storeKey)
	if !ok {
		return Recommendation{}, fmt.Errorf("%w: %s", ErrUnknownStore, storeKey)
	}
	machine := a.tables.Machine(profile.Machine)

	to := date.AddDate(0, 0, -1)
	from := date.AddDate(0, 0, -statsLookbackDays)
	rows, err := a.repo.ListStoreRange(ctx, storeKey, from, to)
	if err != nil {
		return Recommendation{}, fmt.Errorf("load history: %w", err)
	}
	if len(rows) == 0 {
		return emptyResult(storeKey, date, "no history in lookback window"), nil
	}

	byUnit := groupByUnit(rows)
	stats := pattern.BuildStoreStats(byUnit, machine)
	correction, err := a.loadCorrection(ctx, profile.Machine)
	if err != nil {
		return Recommendation{}, err
	}

	windowFrom := date.AddDate(0, 0, -a.window)
	results := make([]scoring.Scored, len(profile.Units))
	include := make([]bool, len(profile.Units))
	lastSeen := make([]time.Time, len(profile.Units))

	var wg sync.WaitGroup
	for i, unitID := range profile.Units {
		wg.Add(1)
		go func(i int, unitID string) {
			defer wg.Done()
			recs := tail(byUnit[unitID], windowFrom)
			w := analysis.ExtractWindow(recs, machine)
			lastSeen[i] = lastScrapedDate(w)

			if mode == ModeLive && !sameDate(lastSeen[i], to) {
				return
			}

			bonus := pattern.Compute(w, stats, date)
			results[i] = scoring.Score(scoring.Input{
				UnitID:     unitID,
				Window:     w,
				Bonus:      bonus,
				Correction: correction,
			}, machine, a.params)
			include[i] = true
		}(i, unitID)
	}
	wg.Wait()

	var (
		scored   []scoring.Scored
		asOf     time.Time
		findings []string
	)
	for i, unitID := range profile.Units {
		if lastSeen[i].After(asOf) {
			asOf = lastSeen[i]
		}
		if include[i] {
			scored = append(scored, results[i])
			continue
		}
		if lastSeen[i].IsZero() {
			findings = append(findings, fmt.Sprintf("unit %s: no scraped history", unitID))
		} else {
			findings = append(findings, fmt.Sprintf("unit %s: last scraped %s",
				unitID, lastSeen[i].Format("2006-01-02")))
		}
	}
	if len(scored) == 0 {
		return emptyResult(storeKey, date, "no units with scraped history"), nil
	}

	scored = scoring.ApplyCap(scored, a.params.SACapFraction, len(profile.Units))
	scoring.SortListing(scored)

	age := 0
	if !asOf.IsZero() {
		age = int(date.Sub(asOf).Hours() / 24)
	}

	a.log.Debug().
		Str("store", storeKey).
		Time("date", date).
		Int("units", len(scored)).
		Int("snapshot_age_days", age).
		Msg("ランキング作成完了")

	return Recommendation{
		StoreKey:        storeKey,
		Date:            date,
		Units:           scored,
		AsOf:            asOf,
		SnapshotAgeDays: age,
		Findings:        findings,
	}, nil
}

// Records converts an assembled ranking into persistence rows.
func (r Recommendation) Records() []storage.RecommendationRecord {
	out := make([]storage.RecommendationRecord, 0, len(r.Units))
	for _, u := range r.Units {
		out = append(out, storage.RecommendationRecord{
			StoreKey:     r.StoreKey,
			UnitID:       u.UnitID,
			Date:         r.Date,
			Rank:         string(u.Rank),
			Score:        u.Score,
			PatternBonus: u.PatternBonus,
			Streak:       u.BadStreak,
			Reasons:      u.Reasons,
		})
	}
	return out
}

// loadCorrection fetches the published-call correction for a machine type.
// A machine with no feedback history yet scores with the neutral factor 1.
func (a *Assembler) loadCorrection(ctx context.Context, machineKey string) (float64, error) {
	rec, err := a.repo.GetCorrection(ctx, machineKey)
	if errors.Is(err, storage.ErrNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load correction: %w", err)
	}
	f, _ := rec.Factor.Float64()
	return f, nil
}

func emptyResult(storeKey string, date time.Time, reason string) Recommendation {
	return Recommendation{StoreKey: storeKey, Date: date, Empty: true, EmptyReason: reason}
}

func groupByUnit(rows []storage.DayRecord) map[string][]storage.DayRecord {
	out := make(map[string][]storage.DayRecord)
	for _, r := range rows {
		out[r.UnitID] = append(out[r.UnitID], r)
	}
	return out
}

func tail(recs []storage.DayRecord, from time.Time) []storage.DayRecord {
	for i, r := range recs {
		if !r.Date.Before(from) {
			return recs[i:]
		}
	}
	return nil
}

// lastScrapedDate returns the newest observed day in the window, or the zero
// time when the unit has never been scraped.
func lastScrapedDate(w analysis.WindowFeatures) time.Time {
	for i := len(w.Days) - 1; i >= 0; i-- {
		if w.Days[i].Scraped {
			return w.Days[i].Date
		}
	}
	return time.Time{}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

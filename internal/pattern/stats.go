package pattern

import (
	"time"

	"slot-advisor/internal/analysis"
	"slot-advisor/internal/config"
	"slot-advisor/internal/storage"
)

// RateSample is an observed success rate with its sample size.
type RateSample struct {
	Hits  int
	Total int
}

// Add records one observation.
func (r *RateSample) Add(hit bool) {
	r.Total++
	if hit {
		r.Hits++
	}
}

// Rate returns the observed rate, 0 for empty samples.
func (r RateSample) Rate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Total)
}

// Confidence ramps from 0 toward 1 as the sample grows: n / (n + k).
func (r RateSample) Confidence(k int) float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Total) / float64(r.Total+k)
}

// StoreStats summarises a store's day-to-day behaviour over its history.
// Only confirmed signals feed the transition samples.
type StoreStats struct {
	CarryGood RateSample // good day followed by another good day
	Promotion RateSample // bad or very bad day followed by a good day
	Overall   RateSample // share of confirmed days that were good
	Weekday   [7]RateSample
	Groups    map[DayGroup]RateSample
}

// BuildStoreStats folds unit histories into transition statistics. Each
// unit's records must be chronological.
func BuildStoreStats(units map[string][]storage.DayRecord, m config.MachineProfile) StoreStats {
	st := StoreStats{Groups: make(map[DayGroup]RateSample)}
	for _, recs := range units {
		var prev analysis.Signal
		var prevDate time.Time
		prevSet := false
		for _, rec := range recs {
			f := analysis.ExtractDay(rec, m)
			s := f.Signal
			if !s.IsConfirmed() {
				// estimated or absent days break the transition chain
				prevSet = false
				continue
			}

			good := s.Outcome == analysis.OutcomeGood
			st.Overall.Add(good)
			st.Weekday[int(rec.Date.Weekday())].Add(good)
			for _, g := range GroupsOf(rec.Date) {
				gs := st.Groups[g]
				gs.Add(good)
				st.Groups[g] = gs
			}

			// Transitions only count between consecutive calendar days. A
			// gap means the intervening days were never scraped, and what
			// happened across them is unknown.
			if prevSet && sameDate(prevDate.AddDate(0, 0, 1), rec.Date) {
				switch prev.Outcome {
				case analysis.OutcomeGood:
					st.CarryGood.Add(good)
				case analysis.OutcomeBad, analysis.OutcomeVeryBad:
					st.Promotion.Add(good)
				}
			}
			prev = s
			prevDate = rec.Date
			prevSet = true
		}
	}
	return st
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

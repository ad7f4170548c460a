package analysis

import (
	"math"
	"time"

	"slot-advisor/internal/config"
	"slot-advisor/internal/storage"
)

// nearCeilingFraction: a counter at or beyond this share of the normal
// ceiling is flagged as a morning-ceiling candidate.
const nearCeilingFraction = 0.8

// DayFeatures is the per-day distilled view of one unit's record.
type DayFeatures struct {
	Date            time.Time
	Games           int
	Hits            int
	BigHits         int // hits of a counter-resetting type
	TotalPayout     int
	NetMedals       int
	NetEstimated    bool // true when NetMedals was derived, not scraped
	MaxChainMedals  int
	ProbDenominator float64 // games per big hit; Games itself when BigHits == 0
	Signal          Signal
	FirstBigGames   int // games from day start to the first big hit; 0 if none
	EndCarryGames   int // games on the counter at close of day
	Scraped         bool
}

// ExtractDay computes features for a single unit-day.
func ExtractDay(rec storage.DayRecord, m config.MachineProfile) DayFeatures {
	f := DayFeatures{
		Date:    rec.Date,
		Games:   rec.Games,
		Hits:    len(rec.Hits),
		Scraped: rec.Scraped,
	}

	counter := 0
	elapsed := 0
	for _, h := range rec.Hits {
		counter += h.Games
		elapsed += h.Games
		f.TotalPayout += h.Medals
		if m.ResetsCounter(h.Type) {
			f.BigHits++
			if f.FirstBigGames == 0 {
				f.FirstBigGames = counter
			}
			counter = 0
		}
	}
	// trailing games after the last hit stay on the counter
	if trailing := rec.Games - elapsed; trailing > 0 {
		counter += trailing
	}
	f.EndCarryGames = counter

	f.MaxChainMedals = MaxChainMedals(rec.Hits, m.ChainGap)

	if rec.NetMedals != nil {
		f.NetMedals = *rec.NetMedals
	} else {
		f.NetMedals = EstimateNet(rec.Games, f.TotalPayout, m.DiffAlpha)
		f.NetEstimated = true
	}

	f.ProbDenominator = denominator(rec.Games, f.BigHits)
	f.Signal = classify(rec, f.BigHits, f.ProbDenominator, m)
	return f
}

// EstimateNet approximates the day's difference medals when the source does
// not expose the counter: big-hit payout minus per-game consumption.
func EstimateNet(games, payout int, alpha float64) int {
	if alpha <= 0 {
		alpha = 1.3
	}
	return payout - int(math.Round(alpha*float64(games)))
}

func denominator(games, bigHits int) float64 {
	if games <= 0 {
		return 0
	}
	if bigHits <= 0 {
		// lower bound on the true denominator
		return float64(games)
	}
	return float64(games) / float64(bigHits)
}

func classify(rec storage.DayRecord, bigHits int, denom float64, m config.MachineProfile) Signal {
	if !rec.Scraped || rec.Games <= 0 {
		return Absent()
	}

	outcome := OutcomeNeutral
	switch {
	case bigHits > 0 && denom <= m.GoodProb:
		outcome = OutcomeGood
	case denom >= m.VeryBadProb:
		outcome = OutcomeVeryBad
	case denom >= m.BadProb:
		outcome = OutcomeBad
	}

	kind := SignalEstimated
	if bigHits >= m.MinHits {
		kind = SignalConfirmed
	}
	return Signal{Kind: kind, Outcome: outcome}
}

// WindowFeatures aggregates a unit's recent days, oldest first.
type WindowFeatures struct {
	Days              []DayFeatures
	ObservedDays      int
	TotalGames        int
	TotalBigHits      int
	WindowDenominator float64
	NetTotal          int
	MaxChainMedals    int
	BadStreak         int // consecutive confirmed bad days ending at the newest day
	GoodStreak        int // consecutive confirmed good days ending at the newest day
	CarryGames        int // counter value at the close of the newest observed day
	CeilingRemaining  int
	NearCeiling       bool
	LikelyReset       bool // the newest day looks like it followed a morning reset
	Yesterday         Signal
}

// ExtractWindow computes window features from chronological day records.
func ExtractWindow(recs []storage.DayRecord, m config.MachineProfile) WindowFeatures {
	w := WindowFeatures{Yesterday: Absent()}
	if len(recs) == 0 {
		return w
	}

	w.Days = make([]DayFeatures, 0, len(recs))
	for _, rec := range recs {
		f := ExtractDay(rec, m)
		w.Days = append(w.Days, f)
		if !f.Scraped {
			continue
		}
		w.ObservedDays++
		w.TotalGames += f.Games
		w.TotalBigHits += f.BigHits
		w.NetTotal += f.NetMedals
		if f.MaxChainMedals > w.MaxChainMedals {
			w.MaxChainMedals = f.MaxChainMedals
		}
	}
	w.WindowDenominator = denominator(w.TotalGames, w.TotalBigHits)

	last := w.Days[len(w.Days)-1]
	w.Yesterday = last.Signal
	w.CarryGames = carryGames(w.Days)
	w.CeilingRemaining = m.NormalCeiling - w.CarryGames
	if w.CeilingRemaining < 0 {
		w.CeilingRemaining = 0
	}
	w.NearCeiling = m.NormalCeiling > 0 &&
		float64(w.CarryGames) >= nearCeilingFraction*float64(m.NormalCeiling)

	w.BadStreak = streak(w.Days, OutcomeBad, OutcomeVeryBad)
	w.GoodStreak = streak(w.Days, OutcomeGood)
	w.LikelyReset = likelyReset(w.Days, m)
	return w
}

// carryGames walks days newest to oldest accumulating games on the counter
// until a big hit is found. Days without a big hit pass their full game count
// through to the next older day.
func carryGames(days []DayFeatures) int {
	total := 0
	for i := len(days) - 1; i >= 0; i-- {
		d := days[i]
		if !d.Scraped {
			continue
		}
		if d.BigHits > 0 {
			return total + d.EndCarryGames
		}
		total += d.Games
	}
	return total
}

// streak counts consecutive days ending at the newest whose signal is both
// confirmed and one of the wanted outcomes. Estimated days never extend a
// confirmed streak.
func streak(days []DayFeatures, wanted ...Outcome) int {
	n := 0
	for i := len(days) - 1; i >= 0; i-- {
		s := days[i].Signal
		if !s.IsConfirmed() || !outcomeIn(s.Outcome, wanted) {
			break
		}
		n++
	}
	return n
}

func outcomeIn(o Outcome, set []Outcome) bool {
	for _, w := range set {
		if o == w {
			return true
		}
	}
	return false
}

// likelyReset checks whether the newest day's first big hit is only
// explainable by an overnight counter reset: the carried counter plus the
// morning games would have sailed past the normal ceiling, yet the hit landed
// within the reset ceiling measured from open.
func likelyReset(days []DayFeatures, m config.MachineProfile) bool {
	if !m.ResetFirstHit || len(days) == 0 {
		return false
	}
	last := days[len(days)-1]
	if last.FirstBigGames == 0 || last.FirstBigGames > m.ResetCeiling {
		return false
	}
	prevCarry := carryGames(days[:len(days)-1])
	return prevCarry+last.FirstBigGames > m.NormalCeiling
}

package feedback

import (
	"github.com/shopspring/decimal"

	"slot-advisor/internal/analysis"
	"slot-advisor/internal/config"
	"slot-advisor/internal/storage"
)

// OutcomeLevel grades a realized day by its medal balance.
type OutcomeLevel string

const (
	LevelBigWin  OutcomeLevel = "big_win"
	LevelWin     OutcomeLevel = "win"
	LevelEven    OutcomeLevel = "even"
	LevelLoss    OutcomeLevel = "loss"
	LevelBigLoss OutcomeLevel = "big_loss"
)

const (
	bigWinMedals = 3000
	winMedals    = 1000
)

// LevelOf maps a net medal balance onto an outcome level.
func LevelOf(net int) OutcomeLevel {
	switch {
	case net >= bigWinMedals:
		return LevelBigWin
	case net >= winMedals:
		return LevelWin
	case net <= -bigWinMedals:
		return LevelBigLoss
	case net <= -winMedals:
		return LevelLoss
	}
	return LevelEven
}

// GoodDay reports whether a realized day came out good: the probability read
// was good, or the player walked away at least a win up.
func GoodDay(sig analysis.Signal, net int) bool {
	if sig.Kind != analysis.SignalAbsent && sig.Outcome == analysis.OutcomeGood {
		return true
	}
	return net >= winMedals
}

// BadDay mirrors GoodDay for the losing side.
func BadDay(sig analysis.Signal, net int) bool {
	if sig.Kind != analysis.SignalAbsent &&
		(sig.Outcome == analysis.OutcomeBad || sig.Outcome == analysis.OutcomeVeryBad) {
		return true
	}
	return net <= -winMedals
}

// IsTopRank reports whether a published rank is a recommendation to play.
func IsTopRank(rank string) bool {
	return rank == "S" || rank == "A"
}

// IsHit is the single predicate used by both the nightly corrector and the
// backtester: a published rank is vindicated when an S or A pick realized a
// good day, or a B-or-below grade realized a bad one. A D unit that went cold
// was called correctly and must never count as a miss.
func IsHit(rank string, sig analysis.Signal, net int) bool {
	if IsTopRank(rank) {
		return GoodDay(sig, net)
	}
	return BadDay(sig, net)
}

// Corrector maintains per-machine correction factors with damped smoothing. All
// arithmetic is decimal so nightly updates stay exact across restarts.
type Corrector struct {
	smoothing decimal.Decimal
	min       decimal.Decimal
	max       decimal.Decimal
}

// NewCorrector builds a corrector from configuration.
func NewCorrector(fc config.FeedbackConfig, sc config.ScoringConfig) *Corrector {
	return &Corrector{
		smoothing: decimal.NewFromFloat(fc.Smoothing),
		min:       decimal.NewFromFloat(sc.CorrectionMin),
		max:       decimal.NewFromFloat(sc.CorrectionMax),
	}
}

var (
	factorNeutral = decimal.NewFromInt(1)
	factorHalf    = decimal.NewFromFloat(0.5)
)

// Update folds a new observation batch into a unit's correction record. The
// target factor maps realized hit rate r onto 0.5 + r, so an always-missing
// unit converges to the lower bound and an always-hitting unit to the upper.
// The factor only moves a smoothing-sized step toward the target per pass.
func (c *Corrector) Update(prev storage.CorrectionRecord, hits, total int) storage.CorrectionRecord {
	next := prev
	if total <= 0 {
		return next
	}

	rate := decimal.NewFromInt(int64(hits)).Div(decimal.NewFromInt(int64(total)))
	target := factorHalf.Add(rate)

	cur := prev.Factor
	if cur.IsZero() {
		cur = factorNeutral
	}
	factor := cur.Add(target.Sub(cur).Mul(c.smoothing))

	if factor.LessThan(c.min) {
		factor = c.min
	}
	if factor.GreaterThan(c.max) {
		factor = c.max
	}

	next.Factor = factor
	next.HitRate = rate
	next.SampleCount = prev.SampleCount + total
	return next
}

// Observation pairs a persisted recommendation with the realized day.
type Observation struct {
	Recommendation storage.RecommendationRecord
	Realized       analysis.DayFeatures
	Observed       bool // false when the realized day was never scraped
}

// Tally counts vindicated calls over a batch of observations. Unobserved
// days are skipped rather than counted as misses.
func Tally(obs []Observation) (hits, total int) {
	for _, o := range obs {
		if !o.Observed {
			continue
		}
		total++
		if IsHit(o.Recommendation.Rank, o.Realized.Signal, o.Realized.NetMedals) {
			hits++
		}
	}
	return hits, total
}

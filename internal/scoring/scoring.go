package scoring

import (
	"slot-advisor/internal/analysis"
	"slot-advisor/internal/config"
	"slot-advisor/internal/pattern"
)

// Rank is the public recommendation grade.
type Rank string

const (
	RankS Rank = "S"
	RankA Rank = "A"
	RankB Rank = "B"
	RankC Rank = "C"
	RankD Rank = "D"
)

// Score-to-rank cutoffs. These are fixed: tuning happens through the score
// components, not by moving the grade boundaries.
const (
	baselineScore = 50.0
	cutoffS       = 75.0
	cutoffA       = 65.0
	cutoffB       = 55.0
	cutoffC       = 45.0
)

// Reason tags attached to a scored unit. Probability tags are mutually
// exclusive, as are the streak tags; InsufficientData always stands alone.
const (
	ReasonInsufficientData    = "insufficient_data"
	ReasonStrongProbability   = "strong_probability"
	ReasonWeakProbability     = "weak_probability"
	ReasonTerribleProbability = "terrible_probability"
	ReasonHotStreak           = "hot_streak"
	ReasonColdStreak          = "cold_streak"
	ReasonNearCeiling         = "near_ceiling"
	ReasonResetSuspected      = "reset_suspected"
	ReasonChainCapable        = "chain_capable"
	ReasonPositiveBalance     = "positive_balance"
)

// component weights
const (
	probGoodConfirmed    = 20.0
	probGoodEstimated    = 10.0
	probBadConfirmed     = -15.0
	probBadEstimated     = -8.0
	probVeryBadConfirmed = -25.0
	probVeryBadEstimated = -12.0

	goodStreakStep = 4.0
	goodStreakCap  = 12.0
	badStreakStep  = -5.0
	badStreakCap   = -15.0

	ceilingBonus = 8.0
	chainBonus   = 5.0
	balanceBonus = 5.0

	chainMedalThreshold = 2000
)

// Params are the scoring knobs taken from configuration.
type Params struct {
	MinHistoryDays int
	SACapFraction  float64
	CorrectionMin  float64
	CorrectionMax  float64
}

// ParamsFrom builds Params from the scoring config section.
func ParamsFrom(c config.ScoringConfig) Params {
	return Params{
		MinHistoryDays: c.MinHistoryDays,
		SACapFraction:  c.SACapFraction,
		CorrectionMin:  c.CorrectionMin,
		CorrectionMax:  c.CorrectionMax,
	}
}

// Input is everything needed to score one unit for a target date.
type Input struct {
	UnitID     string
	Window     analysis.WindowFeatures
	Bonus      pattern.Bonus
	Correction float64 // machine-level feedback factor, 1 when none exists
}

// Scored is the engine's verdict for one unit.
type Scored struct {
	UnitID       string
	Score        float64
	Rank         Rank
	PatternBonus float64
	BadStreak    int
	Reasons      []string
	Insufficient bool
}

// Score evaluates one unit. Units with fewer observed days than the minimum
// are graded D with the insufficient-data reason and nothing else.
func Score(in Input, m config.MachineProfile, p Params) Scored {
	if in.Window.ObservedDays < p.MinHistoryDays {
		return Scored{
			UnitID:       in.UnitID,
			Score:        baselineScore,
			Rank:         RankD,
			Reasons:      []string{ReasonInsufficientData},
			Insufficient: true,
		}
	}

	w := in.Window
	raw := baselineScore
	var reasons []string

	if v, tag := probabilityComponent(w, m); tag != "" {
		raw += v
		reasons = append(reasons, tag)
	}

	if w.GoodStreak > 0 {
		raw += capAbs(float64(w.GoodStreak)*goodStreakStep, goodStreakCap)
		reasons = append(reasons, ReasonHotStreak)
	} else if w.BadStreak > 0 {
		raw += capAbs(float64(w.BadStreak)*badStreakStep, badStreakCap)
		reasons = append(reasons, ReasonColdStreak)
	}

	if w.LikelyReset {
		reasons = append(reasons, ReasonResetSuspected)
	} else if w.NearCeiling {
		raw += ceilingBonus
		reasons = append(reasons, ReasonNearCeiling)
	}

	if w.MaxChainMedals >= chainMedalThreshold {
		raw += chainBonus
		reasons = append(reasons, ReasonChainCapable)
	}
	if w.NetTotal > 0 {
		raw += balanceBonus
		reasons = append(reasons, ReasonPositiveBalance)
	}

	raw += in.Bonus.Value
	reasons = append(reasons, in.Bonus.Tags...)

	corr := in.Correction
	if corr == 0 {
		corr = 1
	}
	corr = clamp(corr, p.CorrectionMin, p.CorrectionMax)
	// correction scales the deviation from baseline, not the score itself,
	// so the grade boundaries keep their meaning
	final := clamp(baselineScore+(raw-baselineScore)*corr, 0, 100)

	return Scored{
		UnitID:       in.UnitID,
		Score:        final,
		Rank:         RankOf(final),
		PatternBonus: in.Bonus.Value,
		BadStreak:    w.BadStreak,
		Reasons:      reasons,
	}
}

// probabilityComponent grades the window denominator against the machine
// thresholds. Confirmed evidence moves the score twice as far as estimated.
func probabilityComponent(w analysis.WindowFeatures, m config.MachineProfile) (float64, string) {
	if w.TotalGames <= 0 {
		return 0, ""
	}
	confirmed := w.TotalBigHits >= m.MinHits
	denom := w.WindowDenominator

	switch {
	case w.TotalBigHits > 0 && denom <= m.GoodProb:
		if confirmed {
			return probGoodConfirmed, ReasonStrongProbability
		}
		return probGoodEstimated, ReasonStrongProbability
	case denom >= m.VeryBadProb:
		if confirmed {
			return probVeryBadConfirmed, ReasonTerribleProbability
		}
		return probVeryBadEstimated, ReasonTerribleProbability
	case denom >= m.BadProb:
		if confirmed {
			return probBadConfirmed, ReasonWeakProbability
		}
		return probBadEstimated, ReasonWeakProbability
	}
	return 0, ""
}

// RankOf maps a score onto the rank ladder.
func RankOf(score float64) Rank {
	switch {
	case score >= cutoffS:
		return RankS
	case score >= cutoffA:
		return RankA
	case score >= cutoffB:
		return RankB
	case score >= cutoffC:
		return RankC
	}
	return RankD
}

func capAbs(v, limit float64) float64 {
	if limit < 0 {
		if v < limit {
			return limit
		}
		return v
	}
	if v > limit {
		return limit
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

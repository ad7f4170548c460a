package pattern

import (
	"time"

	"slot-advisor/internal/analysis"
)

// Bonus accumulation weights. The final value is always clamped to
// [-BonusLimit, +BonusLimit] so pattern effects can nudge but never dominate
// a score.
const (
	BonusLimit = 15.0

	carryWeight   = 8.0
	promoteWeight = 6.0
	weekdayWeight = 15.0
	specialWeight = 10.0

	// retention rates at or below the floor contribute nothing; the
	// contribution saturates a full span above the floor
	retentionFloor = 0.3
	retentionSpan  = 0.3

	confidenceK = 10
)

// Tags a bonus can attach to a recommendation.
const (
	TagCarryOver  = "carry_over"
	TagPromotion  = "promotion_watch"
	TagWeekday    = "weekday_pattern"
	TagSpecialDay = "special_day"
)

// Bonus is the pattern adjustment applied on top of a unit's base score.
type Bonus struct {
	Value float64
	Tags  []string
}

// Compute derives the pattern bonus for one unit on a target date from its
// window features and the store's historical statistics.
func Compute(w analysis.WindowFeatures, st StoreStats, date time.Time) Bonus {
	var b Bonus

	if w.Yesterday.IsConfirmed() {
		switch w.Yesterday.Outcome {
		case analysis.OutcomeGood:
			if v := retention(st.CarryGood, carryWeight); v > 0 {
				b.Value += v
				b.Tags = append(b.Tags, TagCarryOver)
			}
		case analysis.OutcomeBad, analysis.OutcomeVeryBad:
			if v := retention(st.Promotion, promoteWeight); v > 0 {
				b.Value += v
				b.Tags = append(b.Tags, TagPromotion)
			}
		}
	}

	if v := deltaBonus(st.Weekday[int(date.Weekday())], st.Overall, weekdayWeight); v != 0 {
		b.Value += v
		if v > 0 {
			b.Tags = append(b.Tags, TagWeekday)
		}
	}

	special := 0.0
	for _, g := range GroupsOf(date) {
		special += deltaBonus(st.Groups[g], st.Overall, specialWeight)
	}
	if special != 0 {
		b.Value += special
		if special > 0 {
			b.Tags = append(b.Tags, TagSpecialDay)
		}
	}

	b.Value = clamp(b.Value, -BonusLimit, BonusLimit)
	return b
}

// retention maps a day-to-day retention rate onto a weighted bonus. Rates at
// or below the floor yield zero; higher rates yield strictly more, scaled by
// sample confidence.
func retention(r RateSample, weight float64) float64 {
	v := (r.Rate() - retentionFloor) / retentionSpan
	v = clamp(v, 0, 1)
	return v * weight * r.Confidence(confidenceK)
}

// deltaBonus rewards (or penalises) dates whose historical good-rate deviates
// from the store baseline.
func deltaBonus(sample, overall RateSample, weight float64) float64 {
	if sample.Total == 0 || overall.Total == 0 {
		return 0
	}
	delta := sample.Rate() - overall.Rate()
	return delta * weight * sample.Confidence(confidenceK)
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

package scoring

import (
	"math"
	"sort"
)

// ApplyCap enforces the per-store S+A slot budget: at most floor(fraction *
// totalUnits) units may keep rank S or A. Candidates are ordered by score,
// then pattern bonus, then shortest losing streak, then unit id, so the same
// inputs always demote the same units. Demoted units drop to B.
func ApplyCap(scored []Scored, fraction float64, totalUnits int) []Scored {
	if fraction <= 0 || fraction >= 1 || totalUnits <= 0 {
		return scored
	}
	budget := int(math.Floor(fraction * float64(totalUnits)))

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.PatternBonus != b.PatternBonus {
			return a.PatternBonus > b.PatternBonus
		}
		if a.BadStreak != b.BadStreak {
			return a.BadStreak < b.BadStreak
		}
		return a.UnitID < b.UnitID
	})

	kept := 0
	for i := range scored {
		if scored[i].Rank != RankS && scored[i].Rank != RankA {
			continue
		}
		if kept < budget {
			kept++
			continue
		}
		scored[i].Rank = RankB
	}
	return scored
}

// SortListing orders a finished ranking for publication: score descending,
// ties broken by unit id ascending. Unlike the cap's demotion order, pattern
// bonus and streak never influence the printed position.
func SortListing(scored []Scored) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.UnitID < b.UnitID
	})
}

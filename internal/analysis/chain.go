package analysis

import "slot-advisor/internal/storage"

// Chain is a run of consecutive hits whose gaps never exceed the machine's
// chain gap. On chaining machines the sellable "max medals" figure is a chain
// total, not a single payout.
type Chain struct {
	Hits   int
	Medals int
}

// DetectChains groups a day's hits into chains. A hit starts a new chain when
// the games spun since the previous hit exceed gap.
func DetectChains(hits []storage.Hit, gap int) []Chain {
	if len(hits) == 0 {
		return nil
	}
	if gap <= 0 {
		gap = 100
	}

	var chains []Chain
	cur := Chain{Hits: 1, Medals: hits[0].Medals}
	for _, h := range hits[1:] {
		if h.Games > gap {
			chains = append(chains, cur)
			cur = Chain{}
		}
		cur.Hits++
		cur.Medals += h.Medals
	}
	chains = append(chains, cur)
	return chains
}

// MaxChainMedals returns the largest chain total of the day.
func MaxChainMedals(hits []storage.Hit, gap int) int {
	best := 0
	for _, c := range DetectChains(hits, gap) {
		if c.Medals > best {
			best = c.Medals
		}
	}
	return best
}

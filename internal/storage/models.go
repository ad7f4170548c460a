package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Hit is one big-hit event inside a unit's day.
type Hit struct {
	Seq    int    `json:"seq"`          // 1-based order within the day
	Games  int    `json:"games"`        // games spun since the previous hit (or day start)
	Medals int    `json:"medals"`       // medals paid out by this hit
	Type   string `json:"type"`         // BB / RB / ART / AT / REG ...
	At     string `json:"at,omitempty"` // wall-clock "HH:MM" when the source provides it
}

// DayRecord is the per-(store, unit, date) history row. Hits are stored as a
// JSONB document; NetMedals is nil when the source does not expose a
// difference-medal counter.
type DayRecord struct {
	StoreKey  string
	UnitID    string
	Date      time.Time // date component only, store-local
	Games     int
	Hits      []Hit
	NetMedals *int
	Scraped   bool // false marks a failed scrape placeholder
	UpdatedAt time.Time
}

// HitCount returns the number of recorded hits.
func (d DayRecord) HitCount() int { return len(d.Hits) }

// TotalPayout sums medals over all hits of the day.
func (d DayRecord) TotalPayout() int {
	total := 0
	for _, h := range d.Hits {
		total += h.Medals
	}
	return total
}

// RecommendationRecord is one persisted ranking decision for a target date.
type RecommendationRecord struct {
	StoreKey     string
	UnitID       string
	Date         time.Time // the business day the recommendation is for
	Rank         string
	Score        float64
	PatternBonus float64
	Streak       int
	Reasons      []string
	CreatedAt    time.Time
}

// CorrectionRecord is the per-machine-type feedback correction factor: one
// factor per machine, aggregated from every published call on that machine's
// units. The factor and realized hit rate are stored as exact decimals so
// repeated damped updates do not drift.
type CorrectionRecord struct {
	MachineKey  string
	Factor      decimal.Decimal
	HitRate     decimal.Decimal
	SampleCount int
	UpdatedAt   time.Time
}

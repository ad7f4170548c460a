package feedback

import (
	"testing"

	"github.com/shopspring/decimal"

	"slot-advisor/internal/analysis"
	"slot-advisor/internal/config"
	"slot-advisor/internal/storage"
)

func TestLevelOf(t *testing.T) {
	cases := []struct {
		net  int
		want OutcomeLevel
	}{
		{5000, LevelBigWin},
		{3000, LevelBigWin},
		{2999, LevelWin},
		{1000, LevelWin},
		{999, LevelEven},
		{-999, LevelEven},
		{-1000, LevelLoss},
		{-2999, LevelLoss},
		{-3000, LevelBigLoss},
	}
	for _, c := range cases {
		if got := LevelOf(c.net); got != c.want {
			t.Errorf("LevelOf(%d) = %v, want %v", c.net, got, c.want)
		}
	}
}

func TestIsHit(t *testing.T) {
	good := analysis.Signal{Kind: analysis.SignalConfirmed, Outcome: analysis.OutcomeGood}
	goodEst := analysis.Signal{Kind: analysis.SignalEstimated, Outcome: analysis.OutcomeGood}
	veryBad := analysis.Signal{Kind: analysis.SignalConfirmed, Outcome: analysis.OutcomeVeryBad}
	neutral := analysis.Signal{Kind: analysis.SignalConfirmed, Outcome: analysis.OutcomeNeutral}
	absent := analysis.Absent()

	cases := []struct {
		name string
		rank string
		sig  analysis.Signal
		net  int
		want bool
	}{
		{"S確定good、負け額でも当たり", "S", good, -2000, true},
		{"A推定goodでも当たり", "A", goodEst, 0, true},
		{"Sがvery_badなら外れ", "S", veryBad, -3000, false},
		{"Sでneutralでも勝ち額なら当たり", "S", neutral, 1000, true},
		{"Sでneutralで勝ち足りず", "A", neutral, 999, false},
		{"S absentは出玉のみで判定", "S", absent, 1500, true},
		{"S absent負け", "S", absent, -500, false},
		{"Dがvery_badなら正しい予想", "D", veryBad, -3000, true},
		{"Dが大勝ちなら外れ", "D", good, 4000, false},
		{"Bでneutral横ばいは判定保留扱いの外れ", "B", neutral, 0, false},
		{"Cで大負けは当たり", "C", absent, -1500, true},
	}
	for _, c := range cases {
		if got := IsHit(c.rank, c.sig, c.net); got != c.want {
			t.Errorf("%s: IsHit = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestTallyCountsLowRankColdDayAsHit(t *testing.T) {
	veryBad := analysis.Signal{Kind: analysis.SignalConfirmed, Outcome: analysis.OutcomeVeryBad}
	obs := []Observation{{
		Observed:       true,
		Recommendation: storage.RecommendationRecord{UnitID: "1038", Rank: "D"},
		Realized:       analysis.DayFeatures{Signal: veryBad, NetMedals: -3000},
	}}
	hits, total := Tally(obs)
	if hits != 1 || total != 1 {
		t.Errorf("Tally = %d/%d, want 1/1: a D unit that went cold was called correctly", hits, total)
	}
}

func testCorrector() *Corrector {
	return NewCorrector(
		config.FeedbackConfig{Smoothing: 0.3},
		config.ScoringConfig{CorrectionMin: 0.5, CorrectionMax: 1.5},
	)
}

func TestCorrectorFirstUpdate(t *testing.T) {
	c := testCorrector()
	next := c.Update(storage.CorrectionRecord{MachineKey: "sbj"}, 1, 1)

	// target 1.5, step 0.3 from the neutral 1.0
	want := decimal.RequireFromString("1.15")
	if !next.Factor.Equal(want) {
		t.Errorf("Factor = %s, want %s", next.Factor, want)
	}
	if !next.HitRate.Equal(decimal.NewFromInt(1)) {
		t.Errorf("HitRate = %s, want 1", next.HitRate)
	}
	if next.SampleCount != 1 {
		t.Errorf("SampleCount = %d, want 1", next.SampleCount)
	}
}

func TestCorrectorConvergesWithinBounds(t *testing.T) {
	c := testCorrector()

	rec := storage.CorrectionRecord{MachineKey: "sbj"}
	for i := 0; i < 50; i++ {
		rec = c.Update(rec, 1, 1) // hits every day
	}
	if rec.Factor.GreaterThan(decimal.RequireFromString("1.5")) {
		t.Errorf("factor %s escaped the upper bound", rec.Factor)
	}
	if rec.Factor.LessThan(decimal.RequireFromString("1.4")) {
		t.Errorf("factor %s should have converged near 1.5", rec.Factor)
	}

	rec = storage.CorrectionRecord{MachineKey: "hokuto2"}
	for i := 0; i < 50; i++ {
		rec = c.Update(rec, 0, 1) // misses every day
	}
	if rec.Factor.LessThan(decimal.RequireFromString("0.5")) {
		t.Errorf("factor %s escaped the lower bound", rec.Factor)
	}
	if rec.Factor.GreaterThan(decimal.RequireFromString("0.6")) {
		t.Errorf("factor %s should have converged near 0.5", rec.Factor)
	}
}

func TestCorrectorDampedStep(t *testing.T) {
	c := testCorrector()
	prev := storage.CorrectionRecord{MachineKey: "sbj", Factor: decimal.NewFromInt(1), SampleCount: 10}
	next := c.Update(prev, 0, 1)

	// one bad day moves the factor a smoothing-sized step, never to the bound
	want := decimal.RequireFromString("0.85")
	if !next.Factor.Equal(want) {
		t.Errorf("Factor = %s, want %s", next.Factor, want)
	}
	if next.SampleCount != 11 {
		t.Errorf("SampleCount = %d, want 11", next.SampleCount)
	}
}

func TestCorrectorNoObservations(t *testing.T) {
	c := testCorrector()
	prev := storage.CorrectionRecord{MachineKey: "sbj", Factor: decimal.RequireFromString("1.2")}
	next := c.Update(prev, 0, 0)
	if !next.Factor.Equal(prev.Factor) {
		t.Errorf("empty batch must not move the factor: %s", next.Factor)
	}
}

func TestTallySkipsUnobserved(t *testing.T) {
	obs := []Observation{
		{Observed: true,
			Recommendation: storage.RecommendationRecord{UnitID: "1", Rank: "S"},
			Realized: analysis.DayFeatures{
				Signal: analysis.Signal{Kind: analysis.SignalConfirmed, Outcome: analysis.OutcomeGood}}},
		{Observed: false},
		{Observed: true,
			Recommendation: storage.RecommendationRecord{UnitID: "3", Rank: "A"},
			Realized: analysis.DayFeatures{
				Signal:    analysis.Signal{Kind: analysis.SignalConfirmed, Outcome: analysis.OutcomeBad},
				NetMedals: -1200}},
	}
	hits, total := Tally(obs)
	if hits != 1 || total != 2 {
		t.Errorf("Tally = %d/%d, want 1/2", hits, total)
	}
}

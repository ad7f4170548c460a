package app

import (
	"strings"
	"testing"
	"time"

	"slot-advisor/internal/analysis"
)

func TestWriteTrendCSV(t *testing.T) {
	days := []analysis.DayFeatures{
		{
			Date: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
			Games: 3000, BigHits: 25, TotalPayout: 7500,
			NetMedals: 1500,
			Signal:    analysis.Signal{Kind: analysis.SignalConfirmed, Outcome: analysis.OutcomeGood},
		},
		{
			Date: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
			Games: 4000, BigHits: 10, TotalPayout: 2000,
			NetMedals: -2600, NetEstimated: true,
			Signal: analysis.Signal{Kind: analysis.SignalEstimated, Outcome: analysis.OutcomeVeryBad},
		},
	}

	var sb strings.Builder
	if err := writeTrendCSV(&sb, days); err != nil {
		t.Fatalf("writeTrendCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 rows:\n%s", len(lines), sb.String())
	}
	if lines[0] != strings.Join(trendCSVHeader, ",") {
		t.Errorf("header = %q", lines[0])
	}
	if want := "2026-08-29,3000,25,7500,1500,false,confirmed:good,1500"; lines[1] != want {
		t.Errorf("row 1 = %q, want %q", lines[1], want)
	}
	// the last column keeps a running balance across rows
	if want := "2026-08-30,4000,10,2000,-2600,true,estimated:very_bad,-1100"; lines[2] != want {
		t.Errorf("row 2 = %q, want %q", lines[2], want)
	}
}

func TestWriteTrendCSVEmpty(t *testing.T) {
	var sb strings.Builder
	if err := writeTrendCSV(&sb, nil); err != nil {
		t.Fatalf("writeTrendCSV: %v", err)
	}
	if got := strings.TrimRight(sb.String(), "\n"); got != strings.Join(trendCSVHeader, ",") {
		t.Errorf("empty export = %q, want header only", got)
	}
}

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"slot-advisor/internal/config"
	"slot-advisor/internal/storage"
)

const sampleSnapshot = `{
  "store": "shibuya-main",
  "hall_id": "H1234",
  "date": "2026-08-30",
  "units": [
    {
      "unit_id": "1038",
      "games": 5210,
      "net_medals": -320,
      "hits": [
        {"games": 210, "medals": 450, "type": "BB", "at": "10:12"},
        {"games": 95, "medals": 120, "type": "RB"}
      ]
    },
    {"unit_id": "1039", "failed": true}
  ]
}`

func TestParseSnapshot(t *testing.T) {
	s, err := ParseSnapshot([]byte(sampleSnapshot))
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}
	if s.Store != "shibuya-main" || len(s.Units) != 2 {
		t.Fatalf("snapshot = %+v", s)
	}
	day, err := s.Day()
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if day.Format("2006-01-02") != "2026-08-30" {
		t.Errorf("day = %v", day)
	}
}

func TestParseSnapshotMissingDate(t *testing.T) {
	if _, err := ParseSnapshot([]byte(`{"store":"x","units":[]}`)); err == nil {
		t.Fatal("want error for missing date")
	}
}

func TestRecordsMarksFailedScrapes(t *testing.T) {
	s, err := ParseSnapshot([]byte(sampleSnapshot))
	if err != nil {
		t.Fatal(err)
	}
	rows, err := s.Records("shibuya-main")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	ok := rows[0]
	if !ok.Scraped || ok.Games != 5210 || len(ok.Hits) != 2 {
		t.Errorf("scraped row = %+v", ok)
	}
	if ok.Hits[0].Seq != 1 || ok.Hits[1].Seq != 2 {
		t.Errorf("hit sequence numbers not assigned: %+v", ok.Hits)
	}
	if ok.NetMedals == nil || *ok.NetMedals != -320 {
		t.Errorf("net medals = %v, want -320", ok.NetMedals)
	}

	// 取得失敗はプレースホルダ行になる
	failed := rows[1]
	if failed.Scraped {
		t.Error("failed unit must be marked unscraped")
	}
	if failed.Games != 0 || len(failed.Hits) != 0 || failed.NetMedals != nil {
		t.Errorf("failed row must carry no data: %+v", failed)
	}
}

func TestVerify(t *testing.T) {
	profile := config.StoreProfile{
		Machine: "sbj",
		Units:   []string{"1038", "1039", "1040"},
	}
	s := Snapshot{
		Date: "2026-08-30",
		Units: []UnitSnapshot{
			{UnitID: "1038", Games: 100, Hits: nil},
			{UnitID: "1038", Games: 100},                     // duplicate
			{UnitID: "9999", Games: 100},                     // not configured
			{UnitID: "1039", Games: 50, Hits: []storage.Hit{{Games: 80, Medals: 100, Type: "BB"}}}, // intervals exceed games
			// 1040 missing
		},
	}

	findings := Verify(s, profile)
	wantDetails := map[string]bool{
		"duplicate unit in snapshot":  false,
		"not in configured unit list": false,
		"missing from snapshot":       false,
	}
	for _, f := range findings {
		if _, ok := wantDetails[f.Detail]; ok {
			wantDetails[f.Detail] = true
		}
	}
	for detail, seen := range wantDetails {
		if !seen {
			t.Errorf("missing finding %q in %v", detail, findings)
		}
	}

	overflow := false
	for _, f := range findings {
		if f.UnitID == "1039" {
			overflow = true
		}
	}
	if !overflow {
		t.Errorf("want interval overflow finding for 1039, got %v", findings)
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "shibuya-main")
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(storeDir, "2026-08-30.json")
	if err := os.WriteFile(path, []byte(sampleSnapshot), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(dir)
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	s, err := src.Fetch(context.Background(), "shibuya-main", day)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(s.Units) != 2 {
		t.Errorf("units = %d, want 2", len(s.Units))
	}

	_, err = src.Fetch(context.Background(), "shibuya-main", day.AddDate(0, 0, 1))
	if err == nil {
		t.Fatal("want error for missing snapshot")
	}
}

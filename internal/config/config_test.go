package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scoring.WindowDays != 7 {
		t.Errorf("WindowDays = %d, want 7", cfg.Scoring.WindowDays)
	}
	if cfg.Scoring.SACapFraction != 0.3 {
		t.Errorf("SACapFraction = %v, want 0.3", cfg.Scoring.SACapFraction)
	}
	if cfg.Scheduler.Timezone != "Asia/Tokyo" {
		t.Errorf("Timezone = %s", cfg.Scheduler.Timezone)
	}
	if cfg.Feedback.Smoothing != 0.3 {
		t.Errorf("Smoothing = %v", cfg.Feedback.Smoothing)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
scoring:
  window_days: 14
  min_history_days: 5
stores:
  shibuya:
    name: 渋谷本店
    machine: sbj
    units: ["1038", "1039"]
machines:
  custom:
    good_prob: 110
    bad_prob: 140
    min_hits: 15
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scoring.WindowDays != 14 || cfg.Scoring.MinHistoryDays != 5 {
		t.Errorf("scoring = %+v", cfg.Scoring)
	}

	tables := cfg.Tables()
	store, ok := tables.Store("shibuya")
	if !ok || store.Machine != "sbj" || len(store.Units) != 2 {
		t.Errorf("store = %+v ok=%v", store, ok)
	}

	m := tables.Machine("custom")
	if m.GoodProb != 110 || m.BadProb != 140 || m.MinHits != 15 {
		t.Errorf("custom machine = %+v", m)
	}
	// unspecified fields fall back to defaults
	if m.VeryBadProb != 350 || m.ChainGap != 100 {
		t.Errorf("custom machine defaults = %+v", m)
	}
}

func TestBuiltinMachines(t *testing.T) {
	tables := (&Config{}).Tables()

	sbj := tables.Machine("sbj")
	if sbj.GoodProb != 130 || sbj.NormalCeiling != 800 || sbj.ResetCeiling != 600 {
		t.Errorf("sbj profile = %+v", sbj)
	}
	hokuto := tables.Machine("hokuto2")
	if hokuto.NormalCeiling != 1500 || hokuto.DiffAlpha != 1.58 {
		t.Errorf("hokuto2 profile = %+v", hokuto)
	}

	unknown := tables.Machine("no-such-machine")
	if unknown.GoodProb != 200 || unknown.BadProb != 250 {
		t.Errorf("unknown machine must get defaults, got %+v", unknown)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Scoring = ScoringConfig{WindowDays: 7, MinHistoryDays: 3, SACapFraction: 0.3, CorrectionMin: 0.5, CorrectionMax: 1.5}
		cfg.Feedback = FeedbackConfig{Smoothing: 0.3}
		cfg.Export = ExportConfig{MaxDataPoints: 1000}
		cfg.Scheduler = SchedulerConfig{CloseTime: "23:00", Timezone: "Asia/Tokyo"}
		return cfg
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg := base()
	cfg.Scoring.SACapFraction = 1.2
	if cfg.Validate() == nil {
		t.Error("cap fraction above 1 must be rejected")
	}

	cfg = base()
	cfg.Scheduler.CloseTime = "25:00"
	if cfg.Validate() == nil {
		t.Error("invalid close time must be rejected")
	}

	cfg = base()
	cfg.Machines = map[string]MachineProfile{
		"broken": {GoodProb: 200, BadProb: 150, VeryBadProb: 300, MinHits: 10},
	}
	if cfg.Validate() == nil {
		t.Error("good >= bad thresholds must be rejected")
	}

	cfg = base()
	cfg.Machines = map[string]MachineProfile{
		"broken": {GoodProb: 120, BadProb: 150, VeryBadProb: 200, MinHits: 10,
			NormalCeiling: 600, ResetCeiling: 900, ResetFirstHit: true},
	}
	if cfg.Validate() == nil {
		t.Error("reset ceiling above normal ceiling must be rejected")
	}

	cfg = base()
	cfg.Stores = map[string]StoreProfile{"s": {Machine: "sbj"}}
	if cfg.Validate() == nil {
		t.Error("store without units must be rejected")
	}
}

func TestParseClock(t *testing.T) {
	d, err := ParseClock("22:45")
	if err != nil {
		t.Fatal(err)
	}
	if d != 22*time.Hour+45*time.Minute {
		t.Errorf("ParseClock = %v", d)
	}
	for _, bad := range []string{"", "7", "24:00", "12:60", "ab:cd"} {
		if _, err := ParseClock(bad); err == nil {
			t.Errorf("ParseClock(%q) should fail", bad)
		}
	}
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"slot-advisor/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig                 `mapstructure:"app"`
	Logging   logging.Config            `mapstructure:"logging"`
	Database  DatabaseConfig            `mapstructure:"database"`
	Scheduler SchedulerConfig           `mapstructure:"scheduler"`
	Scoring   ScoringConfig             `mapstructure:"scoring"`
	Feedback  FeedbackConfig            `mapstructure:"feedback"`
	Ingest    IngestConfig              `mapstructure:"ingest"`
	Export    ExportConfig              `mapstructure:"export"`
	Machines  map[string]MachineProfile `mapstructure:"machines"`
	Stores    map[string]StoreProfile   `mapstructure:"stores"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig governs the daily close-of-day processing cadence.
type SchedulerConfig struct {
	CloseTime       string        `mapstructure:"close_time"` // "HH:MM" local time
	Timezone        string        `mapstructure:"timezone"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// ScoringConfig tunes the scoring engine.
type ScoringConfig struct {
	WindowDays     int     `mapstructure:"window_days"`      // history window fed to feature extraction
	MinHistoryDays int     `mapstructure:"min_history_days"` // below this a unit is "insufficient data"
	SACapFraction  float64 `mapstructure:"sa_cap_fraction"`  // per-store S+A slot cap as fraction of units
	CorrectionMin  float64 `mapstructure:"correction_min"`
	CorrectionMax  float64 `mapstructure:"correction_max"`
}

// FeedbackConfig tunes the nightly feedback corrector.
type FeedbackConfig struct {
	Smoothing float64 `mapstructure:"smoothing"` // exponential smoothing weight toward realized hit-rate
}

// IngestConfig locates scraped snapshot documents.
type IngestConfig struct {
	SnapshotDir string `mapstructure:"snapshot_dir"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// MachineProfile carries per-machine-type analysis parameters.
// Probability thresholds are denominators of 1/X (games per hit): lower is
// better, and a day is "good" when its observed denominator is at or below
// GoodProb.
type MachineProfile struct {
	Name              string  `mapstructure:"name"`
	GoodProb          float64 `mapstructure:"good_prob"`
	BadProb           float64 `mapstructure:"bad_prob"`
	VeryBadProb       float64 `mapstructure:"very_bad_prob"`
	MinHits           int     `mapstructure:"min_hits"` // below this, a day is never confirmed good/bad
	TypicalDailyGames int     `mapstructure:"typical_daily_games"`
	NormalCeiling     int     `mapstructure:"normal_ceiling"`
	ResetCeiling      int     `mapstructure:"reset_ceiling"`
	ResetFirstHit     bool    `mapstructure:"reset_first_hit_bonus"`
	// Hit types that reset the games-since-hit counter. Anything else (RB,
	// REG) accumulates across the boundary. Externally supplied per machine;
	// not inferable from scraped data.
	CeilingResetTypes []string `mapstructure:"ceiling_reset_types"`
	ChainGap          int      `mapstructure:"chain_gap"`  // max idle games inside one chain
	DiffAlpha         float64  `mapstructure:"diff_alpha"` // per-game medal consumption for net estimation
}

// ResetsCounter reports whether a hit type resets the games-since-hit counter.
func (m MachineProfile) ResetsCounter(hitType string) bool {
	for _, t := range m.CeilingResetTypes {
		if strings.EqualFold(t, hitType) {
			return true
		}
	}
	return false
}

// StoreProfile identifies one store/machine island and its authoritative
// unit membership set.
type StoreProfile struct {
	Name       string   `mapstructure:"name"`
	HallID     string   `mapstructure:"hall_id"`
	Machine    string   `mapstructure:"machine"`
	Units      []string `mapstructure:"units"`
	DataSource string   `mapstructure:"data_source"`
}

// Tables is the immutable profile snapshot injected into the engine.
type Tables struct {
	Machines map[string]MachineProfile
	Stores   map[string]StoreProfile
}

// Machine returns the profile for a machine key, falling back to defaults.
func (t Tables) Machine(key string) MachineProfile {
	if m, ok := t.Machines[key]; ok {
		return m
	}
	return defaultMachine(key)
}

// Store looks up a store profile.
func (t Tables) Store(key string) (StoreProfile, bool) {
	s, ok := t.Stores[key]
	return s, ok
}

// MachineFor resolves the machine profile of a store.
func (t Tables) MachineFor(storeKey string) MachineProfile {
	if s, ok := t.Stores[storeKey]; ok {
		return t.Machine(s.Machine)
	}
	return defaultMachine("")
}

// Tables builds the immutable snapshot handed to the engine.
func (c *Config) Tables() Tables {
	merged := mergeBuiltinMachines(c.Machines)
	machines := make(map[string]MachineProfile, len(merged))
	for key, m := range merged {
		machines[key] = normalizeMachine(key, m)
	}
	stores := make(map[string]StoreProfile, len(c.Stores))
	for key, s := range c.Stores {
		stores[key] = s
	}
	return Tables{Machines: machines, Stores: stores}
}

func defaultMachine(key string) MachineProfile {
	return MachineProfile{
		Name:              key,
		GoodProb:          200,
		BadProb:           250,
		VeryBadProb:       350,
		MinHits:           10,
		TypicalDailyGames: 5000,
		NormalCeiling:     999,
		ResetCeiling:      999, // no reset benefit unless configured
		ResetFirstHit:     false,
		CeilingResetTypes: []string{"ART", "AT", "BB", "BIG"},
		ChainGap:          100,
		DiffAlpha:         1.3,
	}
}

func normalizeMachine(key string, m MachineProfile) MachineProfile {
	def := defaultMachine(key)
	if m.Name == "" {
		m.Name = key
	}
	if m.GoodProb <= 0 {
		m.GoodProb = def.GoodProb
	}
	if m.BadProb <= 0 {
		m.BadProb = def.BadProb
	}
	if m.VeryBadProb <= 0 {
		m.VeryBadProb = def.VeryBadProb
	}
	if m.MinHits <= 0 {
		m.MinHits = def.MinHits
	}
	if m.TypicalDailyGames <= 0 {
		m.TypicalDailyGames = def.TypicalDailyGames
	}
	if m.NormalCeiling <= 0 {
		m.NormalCeiling = def.NormalCeiling
	}
	if m.ResetCeiling <= 0 {
		m.ResetCeiling = m.NormalCeiling
	}
	if len(m.CeilingResetTypes) == 0 {
		m.CeilingResetTypes = def.CeilingResetTypes
	}
	if m.ChainGap <= 0 {
		m.ChainGap = def.ChainGap
	}
	if m.DiffAlpha <= 0 {
		m.DiffAlpha = def.DiffAlpha
	}
	return m
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SLOTADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "slotadvisor")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.close_time", "23:00")
	v.SetDefault("scheduler.timezone", "Asia/Tokyo")
	v.SetDefault("scheduler.advisory_lock_key", int64(0x736c6f74))
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("scoring.window_days", 7)
	v.SetDefault("scoring.min_history_days", 3)
	v.SetDefault("scoring.sa_cap_fraction", 0.3)
	v.SetDefault("scoring.correction_min", 0.5)
	v.SetDefault("scoring.correction_max", 1.5)

	v.SetDefault("feedback.smoothing", 0.3)

	v.SetDefault("ingest.snapshot_dir", "data/daily")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scoring.SACapFraction <= 0 || c.Scoring.SACapFraction > 1 {
		return fmt.Errorf("scoring.sa_cap_fraction must be in (0, 1]")
	}
	if c.Scoring.WindowDays <= 0 {
		return fmt.Errorf("scoring.window_days must be greater than zero")
	}
	if c.Scoring.MinHistoryDays <= 0 {
		return fmt.Errorf("scoring.min_history_days must be greater than zero")
	}
	if c.Scoring.CorrectionMin <= 0 || c.Scoring.CorrectionMin > 1 {
		return fmt.Errorf("scoring.correction_min must be in (0, 1]")
	}
	if c.Scoring.CorrectionMax < 1 {
		return fmt.Errorf("scoring.correction_max must be at least 1")
	}
	if c.Feedback.Smoothing <= 0 || c.Feedback.Smoothing > 1 {
		return fmt.Errorf("feedback.smoothing must be in (0, 1]")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if _, err := ParseClock(c.Scheduler.CloseTime); err != nil {
		return fmt.Errorf("scheduler.close_time: %w", err)
	}

	for key, m := range c.Machines {
		norm := normalizeMachine(key, m)
		if !(norm.GoodProb < norm.BadProb && norm.BadProb <= norm.VeryBadProb) {
			return fmt.Errorf("machines.%s: thresholds must satisfy good < bad <= very_bad", key)
		}
		if norm.ResetFirstHit && norm.ResetCeiling > norm.NormalCeiling {
			return fmt.Errorf("machines.%s: reset_ceiling must not exceed normal_ceiling when reset_first_hit_bonus is set", key)
		}
	}

	for key, s := range c.Stores {
		if s.Machine == "" {
			return fmt.Errorf("stores.%s: machine is required", key)
		}
		if len(s.Units) == 0 {
			return fmt.Errorf("stores.%s: units list is required", key)
		}
	}

	return nil
}

// ParseClock parses an "HH:MM" clock string into hour and minute.
func ParseClock(s string) (time.Duration, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock %q (want HH:MM)", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock %q (want HH:MM)", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}

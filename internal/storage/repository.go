package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

// executed one at a time: the extended protocol rejects multi-statement Exec
var schemaSQL = []string{`
CREATE TABLE IF NOT EXISTS unit_days (
	store_key  TEXT        NOT NULL,
	unit_id    TEXT        NOT NULL,
	day        DATE        NOT NULL,
	games      INTEGER     NOT NULL DEFAULT 0,
	hits       JSONB       NOT NULL DEFAULT '[]'::jsonb,
	net_medals INTEGER,
	scraped    BOOLEAN     NOT NULL DEFAULT TRUE,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (store_key, unit_id, day)
)`, `
CREATE INDEX IF NOT EXISTS idx_unit_days_store_day ON unit_days (store_key, day)`, `
CREATE TABLE IF NOT EXISTS recommendations (
	store_key     TEXT             NOT NULL,
	unit_id       TEXT             NOT NULL,
	day           DATE             NOT NULL,
	rank          TEXT             NOT NULL,
	score         DOUBLE PRECISION NOT NULL,
	pattern_bonus DOUBLE PRECISION NOT NULL DEFAULT 0,
	streak        INTEGER          NOT NULL DEFAULT 0,
	reasons       JSONB            NOT NULL DEFAULT '[]'::jsonb,
	created_at    TIMESTAMPTZ      NOT NULL DEFAULT now(),
	PRIMARY KEY (store_key, unit_id, day)
)`, `
CREATE TABLE IF NOT EXISTS corrections (
	machine_key  TEXT        NOT NULL,
	factor       NUMERIC     NOT NULL,
	hit_rate     NUMERIC     NOT NULL DEFAULT 0,
	sample_count INTEGER     NOT NULL DEFAULT 0,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (machine_key)
)`,
}

const upsertDaySQL = `
INSERT INTO unit_days (store_key, unit_id, day, games, hits, net_medals, scraped, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (store_key, unit_id, day)
DO UPDATE SET games = EXCLUDED.games,
              hits = EXCLUDED.hits,
              net_medals = EXCLUDED.net_medals,
              scraped = EXCLUDED.scraped,
              updated_at = now()
`

const selectDaySQL = `
SELECT store_key, unit_id, day, games, hits, net_medals, scraped, updated_at
FROM unit_days
WHERE store_key = $1 AND unit_id = $2 AND day = $3
`

const selectUnitRangeSQL = `
SELECT store_key, unit_id, day, games, hits, net_medals, scraped, updated_at
FROM unit_days
WHERE store_key = $1 AND unit_id = $2 AND day >= $3 AND day <= $4
ORDER BY day
`

const selectStoreDaySQL = `
SELECT store_key, unit_id, day, games, hits, net_medals, scraped, updated_at
FROM unit_days
WHERE store_key = $1 AND day = $2
ORDER BY unit_id
`

const selectStoreRangeSQL = `
SELECT store_key, unit_id, day, games, hits, net_medals, scraped, updated_at
FROM unit_days
WHERE store_key = $1 AND day >= $2 AND day <= $3
ORDER BY unit_id, day
`

const upsertRecommendationSQL = `
INSERT INTO recommendations (store_key, unit_id, day, rank, score, pattern_bonus, streak, reasons, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
ON CONFLICT (store_key, unit_id, day)
DO UPDATE SET rank = EXCLUDED.rank,
              score = EXCLUDED.score,
              pattern_bonus = EXCLUDED.pattern_bonus,
              streak = EXCLUDED.streak,
              reasons = EXCLUDED.reasons,
              created_at = now()
`

const selectRecommendationsSQL = `
SELECT store_key, unit_id, day, rank, score, pattern_bonus, streak, reasons, created_at
FROM recommendations
WHERE store_key = $1 AND day = $2
ORDER BY score DESC, unit_id
`

const upsertCorrectionSQL = `
INSERT INTO corrections (machine_key, factor, hit_rate, sample_count, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (machine_key)
DO UPDATE SET factor = EXCLUDED.factor,
              hit_rate = EXCLUDED.hit_rate,
              sample_count = EXCLUDED.sample_count,
              updated_at = now()
`

const selectCorrectionSQL = `
SELECT machine_key, factor::text, hit_rate::text, sample_count, updated_at
FROM corrections
WHERE machine_key = $1
`

const selectCorrectionsSQL = `
SELECT machine_key, factor::text, hit_rate::text, sample_count, updated_at
FROM corrections
ORDER BY machine_key
`

const advisoryLockSQL = `SELECT pg_try_advisory_lock($1)`
const advisoryUnlockSQL = `SELECT pg_advisory_unlock($1)`

// Store wraps the connection pool with typed persistence operations.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaSQL {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// UpsertDayRecord inserts or replaces one unit-day row. Re-ingesting the same
// (store, unit, day) is last-writer-wins.
func (s *Store) UpsertDayRecord(ctx context.Context, rec DayRecord) error {
	hits, err := json.Marshal(hitsOrEmpty(rec.Hits))
	if err != nil {
		return fmt.Errorf("encode hits: %w", err)
	}
	_, err = s.pool.Exec(ctx, upsertDaySQL,
		rec.StoreKey, rec.UnitID, rec.Date, rec.Games, hits, rec.NetMedals, rec.Scraped)
	if err != nil {
		return fmt.Errorf("upsert unit day %s/%s %s: %w",
			rec.StoreKey, rec.UnitID, rec.Date.Format("2006-01-02"), err)
	}
	return nil
}

// GetDayRecord fetches one unit-day row.
func (s *Store) GetDayRecord(ctx context.Context, storeKey, unitID string, day time.Time) (DayRecord, error) {
	row := s.pool.QueryRow(ctx, selectDaySQL, storeKey, unitID, day)
	rec, err := scanDayRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return DayRecord{}, ErrNotFound
	}
	return rec, err
}

// ListUnitRange returns a unit's rows over [from, to], oldest first. A unit
// with no rows in the range yields ErrNotFound, never an empty slice.
func (s *Store) ListUnitRange(ctx context.Context, storeKey, unitID string, from, to time.Time) ([]DayRecord, error) {
	rows, err := s.pool.Query(ctx, selectUnitRangeSQL, storeKey, unitID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query unit range: %w", err)
	}
	defer rows.Close()

	recs, err := collectDayRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs, nil
}

// ListStoreDay returns every unit row of a store for one day.
func (s *Store) ListStoreDay(ctx context.Context, storeKey string, day time.Time) ([]DayRecord, error) {
	rows, err := s.pool.Query(ctx, selectStoreDaySQL, storeKey, day)
	if err != nil {
		return nil, fmt.Errorf("query store day: %w", err)
	}
	defer rows.Close()
	return collectDayRecords(rows)
}

// ListStoreRange returns every unit row of a store over [from, to].
func (s *Store) ListStoreRange(ctx context.Context, storeKey string, from, to time.Time) ([]DayRecord, error) {
	rows, err := s.pool.Query(ctx, selectStoreRangeSQL, storeKey, from, to)
	if err != nil {
		return nil, fmt.Errorf("query store range: %w", err)
	}
	defer rows.Close()
	return collectDayRecords(rows)
}

// SaveRecommendations persists a full ranking batch for one store/day.
func (s *Store) SaveRecommendations(ctx context.Context, recs []RecommendationRecord) error {
	for _, r := range recs {
		reasons, err := json.Marshal(stringsOrEmpty(r.Reasons))
		if err != nil {
			return fmt.Errorf("encode reasons: %w", err)
		}
		_, err = s.pool.Exec(ctx, upsertRecommendationSQL,
			r.StoreKey, r.UnitID, r.Date, r.Rank, r.Score, r.PatternBonus, r.Streak, reasons)
		if err != nil {
			return fmt.Errorf("upsert recommendation %s/%s: %w", r.StoreKey, r.UnitID, err)
		}
	}
	return nil
}

// ListRecommendations returns the persisted ranking for one store/day,
// highest score first.
func (s *Store) ListRecommendations(ctx context.Context, storeKey string, day time.Time) ([]RecommendationRecord, error) {
	rows, err := s.pool.Query(ctx, selectRecommendationsSQL, storeKey, day)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	var out []RecommendationRecord
	for rows.Next() {
		var (
			r       RecommendationRecord
			reasons []byte
		)
		if err := rows.Scan(&r.StoreKey, &r.UnitID, &r.Date, &r.Rank, &r.Score,
			&r.PatternBonus, &r.Streak, &reasons, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		if err := json.Unmarshal(reasons, &r.Reasons); err != nil {
			return nil, fmt.Errorf("decode reasons: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetCorrection fetches a machine type's correction factor.
func (s *Store) GetCorrection(ctx context.Context, machineKey string) (CorrectionRecord, error) {
	row := s.pool.QueryRow(ctx, selectCorrectionSQL, machineKey)
	rec, err := scanCorrection(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return CorrectionRecord{}, ErrNotFound
	}
	return rec, err
}

// ListCorrections returns every machine's correction factor.
func (s *Store) ListCorrections(ctx context.Context) ([]CorrectionRecord, error) {
	rows, err := s.pool.Query(ctx, selectCorrectionsSQL)
	if err != nil {
		return nil, fmt.Errorf("query corrections: %w", err)
	}
	defer rows.Close()

	var out []CorrectionRecord
	for rows.Next() {
		rec, err := scanCorrection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpsertCorrection persists a machine type's correction factor.
func (s *Store) UpsertCorrection(ctx context.Context, rec CorrectionRecord) error {
	_, err := s.pool.Exec(ctx, upsertCorrectionSQL,
		rec.MachineKey, rec.Factor.String(), rec.HitRate.String(), rec.SampleCount)
	if err != nil {
		return fmt.Errorf("upsert correction %s: %w", rec.MachineKey, err)
	}
	return nil
}

// TryAdvisoryLock attempts a session advisory lock. On success it returns an
// unlock function that must be called when processing finishes; ok is false
// when another writer holds the lock.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), ok bool, err error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, advisoryLockSQL, key).Scan(&locked); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("advisory lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, false, nil
	}

	unlock = func() {
		var released bool
		_ = conn.QueryRow(context.Background(), advisoryUnlockSQL, key).Scan(&released)
		conn.Release()
	}
	return unlock, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDayRecord(row rowScanner) (DayRecord, error) {
	var (
		rec  DayRecord
		hits []byte
	)
	if err := row.Scan(&rec.StoreKey, &rec.UnitID, &rec.Date, &rec.Games,
		&hits, &rec.NetMedals, &rec.Scraped, &rec.UpdatedAt); err != nil {
		return DayRecord{}, err
	}
	if err := json.Unmarshal(hits, &rec.Hits); err != nil {
		return DayRecord{}, fmt.Errorf("decode hits: %w", err)
	}
	return rec, nil
}

func collectDayRecords(rows pgx.Rows) ([]DayRecord, error) {
	var out []DayRecord
	for rows.Next() {
		rec, err := scanDayRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unit day: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanCorrection(row rowScanner) (CorrectionRecord, error) {
	var (
		rec         CorrectionRecord
		factorText  string
		hitRateText string
	)
	if err := row.Scan(&rec.MachineKey, &factorText, &hitRateText,
		&rec.SampleCount, &rec.UpdatedAt); err != nil {
		return CorrectionRecord{}, err
	}
	factor, err := decimal.NewFromString(factorText)
	if err != nil {
		return CorrectionRecord{}, fmt.Errorf("parse factor: %w", err)
	}
	hitRate, err := decimal.NewFromString(hitRateText)
	if err != nil {
		return CorrectionRecord{}, fmt.Errorf("parse hit rate: %w", err)
	}
	rec.Factor = factor
	rec.HitRate = hitRate
	return rec, nil
}

func hitsOrEmpty(hits []Hit) []Hit {
	if hits == nil {
		return []Hit{}
	}
	return hits
}

func stringsOrEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

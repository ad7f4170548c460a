package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"slot-advisor/internal/analysis"
	"slot-advisor/internal/config"
	"slot-advisor/internal/feedback"
	"slot-advisor/internal/ingest"
	"slot-advisor/internal/recommend"
	"slot-advisor/internal/storage"
)

// Repo is the persistence surface the service drives.
type Repo interface {
	UpsertDayRecord(ctx context.Context, rec storage.DayRecord) error
	ListStoreDay(ctx context.Context, storeKey string, day time.Time) ([]storage.DayRecord, error)
	ListStoreRange(ctx context.Context, storeKey string, from, to time.Time) ([]storage.DayRecord, error)
	SaveRecommendations(ctx context.Context, recs []storage.RecommendationRecord) error
	ListRecommendations(ctx context.Context, storeKey string, day time.Time) ([]storage.RecommendationRecord, error)
	GetCorrection(ctx context.Context, machineKey string) (storage.CorrectionRecord, error)
	UpsertCorrection(ctx context.Context, rec storage.CorrectionRecord) error
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), ok bool, err error)
}

// Service wires ingestion, feedback and recommendation into the nightly
// close-of-day pass.
type Service struct {
	repo      Repo
	source    ingest.Source
	tables    config.Tables
	assembler *recommend.Assembler
	corrector *feedback.Corrector
	lockKey   int64
	log       zerolog.Logger
}

// New assembles the service.
func New(repo Repo, source ingest.Source, tables config.Tables,
	assembler *recommend.Assembler, corrector *feedback.Corrector,
	lockKey int64, log zerolog.Logger) *Service {

	return &Service{
		repo:      repo,
		source:    source,
		tables:    tables,
		assembler: assembler,
		corrector: corrector,
		lockKey:   lockKey,
		log:       log.With().Str("component", "service").Logger(),
	}
}

// ProcessDay runs the full close-of-day pass for one business day: ingest
// the day's snapshots, update correction factors from yesterday's calls, and
// publish tomorrow's rankings. A session advisory lock keeps concurrent
// deployments from double-writing; when another writer holds it the pass is
// skipped, not queued.
func (s *Service) ProcessDay(ctx context.Context, day time.Time) error {
	unlock, ok, err := s.repo.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	if !ok {
		s.log.Warn().Time("day", day).Msg("別プロセスが処理中のためスキップ")
		return nil
	}
	defer unlock()

	var firstErr error
	for storeKey := range s.tables.Stores {
		if err := s.processStore(ctx, storeKey, day); err != nil {
			s.log.Error().Err(err).Str("store", storeKey).Msg("店舗処理に失敗")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *Service) processStore(ctx context.Context, storeKey string, day time.Time) error {
	if _, _, err := s.IngestStore(ctx, storeKey, day); err != nil {
		if !errors.Is(err, ingest.ErrSnapshotNotFound) {
			return err
		}
		s.log.Warn().Str("store", storeKey).Time("day", day).Msg("スナップショット未着")
	}

	if err := s.FeedbackPass(ctx, storeKey, day); err != nil {
		return err
	}

	next := day.AddDate(0, 0, 1)
	rec, err := s.assembler.Assemble(ctx, storeKey, next, recommend.ModeBatch)
	if err != nil {
		return err
	}
	if rec.Empty {
		s.log.Info().Str("store", storeKey).Str("reason", rec.EmptyReason).Msg("推奨リストは空")
		return nil
	}
	return s.repo.SaveRecommendations(ctx, rec.Records())
}

// IngestStore pulls one store's snapshot for a day and upserts its rows.
// Re-running the same day overwrites in place; ingestion is idempotent.
func (s *Service) IngestStore(ctx context.Context, storeKey string, day time.Time) (int, []ingest.Finding, error) {
	profile, ok := s.tables.Store(storeKey)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %s", recommend.ErrUnknownStore, storeKey)
	}

	snap, err := s.source.Fetch(ctx, storeKey, day)
	if err != nil {
		return 0, nil, err
	}

	findings := ingest.Verify(snap, profile)
	for _, f := range findings {
		s.log.Warn().Str("store", storeKey).Str("finding", f.String()).Msg("データ整合性の警告")
	}

	rows, err := snap.Records(storeKey)
	if err != nil {
		return 0, findings, err
	}
	for _, row := range rows {
		if err := s.repo.UpsertDayRecord(ctx, row); err != nil {
			return 0, findings, err
		}
	}

	s.log.Info().Str("store", storeKey).Time("day", day).Int("units", len(rows)).Msg("取込完了")
	return len(rows), findings, nil
}

// FeedbackPass compares the recommendations published for day against what
// actually happened. All of the store's calls are tallied into one hit rate
// for its machine type, and that machine's correction factor takes a single
// damped step per pass.
func (s *Service) FeedbackPass(ctx context.Context, storeKey string, day time.Time) error {
	recs, err := s.repo.ListRecommendations(ctx, storeKey, day)
	if err != nil {
		return fmt.Errorf("load recommendations: %w", err)
	}
	if len(recs) == 0 {
		return nil
	}

	rows, err := s.repo.ListStoreDay(ctx, storeKey, day)
	if err != nil {
		return fmt.Errorf("load realized day: %w", err)
	}
	realized := make(map[string]storage.DayRecord, len(rows))
	for _, r := range rows {
		realized[r.UnitID] = r
	}

	profile, _ := s.tables.Store(storeKey)
	machine := s.tables.Machine(profile.Machine)

	var obs []feedback.Observation
	for _, rec := range recs {
		row, ok := realized[rec.UnitID]
		if !ok || !row.Scraped {
			continue
		}
		obs = append(obs, feedback.Observation{
			Recommendation: rec,
			Realized:       analysis.ExtractDay(row, machine),
			Observed:       true,
		})
	}
	hits, total := feedback.Tally(obs)
	if total == 0 {
		return nil
	}

	prev, err := s.repo.GetCorrection(ctx, profile.Machine)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load correction: %w", err)
	}
	prev.MachineKey = profile.Machine

	next := s.corrector.Update(prev, hits, total)
	if err := s.repo.UpsertCorrection(ctx, next); err != nil {
		return err
	}

	s.log.Info().
		Str("store", storeKey).
		Str("machine", profile.Machine).
		Int("hits", hits).
		Int("total", total).
		Str("factor", next.Factor.String()).
		Msg("補正係数を更新")
	return nil
}

// Recommend assembles a ranking on demand. Batch mode also persists it.
func (s *Service) Recommend(ctx context.Context, storeKey string, date time.Time, mode recommend.Mode) (recommend.Recommendation, error) {
	rec, err := s.assembler.Assemble(ctx, storeKey, date, mode)
	if err != nil {
		return recommend.Recommendation{}, err
	}
	if mode == recommend.ModeBatch && !rec.Empty {
		if err := s.repo.SaveRecommendations(ctx, rec.Records()); err != nil {
			return recommend.Recommendation{}, err
		}
	}
	return rec, nil
}

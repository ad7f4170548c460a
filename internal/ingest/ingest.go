package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"slot-advisor/internal/storage"
)

// ErrSnapshotNotFound indicates no snapshot document exists for the
// requested store and day.
var ErrSnapshotNotFound = errors.New("ingest: snapshot not found")

// UnitSnapshot is one unit's scraped day as it arrives from a collector.
type UnitSnapshot struct {
	UnitID    string        `json:"unit_id"`
	Games     int           `json:"games"`
	NetMedals *int          `json:"net_medals,omitempty"`
	Failed    bool          `json:"failed,omitempty"` // scrape failed for this unit
	Hits      []storage.Hit `json:"hits"`
}

// Snapshot is a full store scrape for one business day.
type Snapshot struct {
	Store  string         `json:"store"`
	HallID string         `json:"hall_id,omitempty"`
	Date   string         `json:"date"` // "2006-01-02"
	Units  []UnitSnapshot `json:"units"`
}

// Day parses the snapshot's business date.
func (s Snapshot) Day() (time.Time, error) {
	t, err := time.Parse("2006-01-02", s.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse snapshot date %q: %w", s.Date, err)
	}
	return t, nil
}

// Records converts the snapshot into history rows keyed on storeKey. Failed
// units become unscraped placeholder rows so downstream code can tell "no
// data" apart from "bad day".
func (s Snapshot) Records(storeKey string) ([]storage.DayRecord, error) {
	day, err := s.Day()
	if err != nil {
		return nil, err
	}

	out := make([]storage.DayRecord, 0, len(s.Units))
	for _, u := range s.Units {
		rec := storage.DayRecord{
			StoreKey: storeKey,
			UnitID:   u.UnitID,
			Date:     day,
			Scraped:  !u.Failed,
		}
		if !u.Failed {
			rec.Games = u.Games
			rec.Hits = numberHits(u.Hits)
			rec.NetMedals = u.NetMedals
		}
		out = append(out, rec)
	}
	return out, nil
}

func numberHits(hits []storage.Hit) []storage.Hit {
	out := make([]storage.Hit, len(hits))
	for i, h := range hits {
		h.Seq = i + 1
		out[i] = h
	}
	return out
}

// ParseSnapshot decodes a snapshot document.
func ParseSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Date == "" {
		return Snapshot{}, errors.New("snapshot missing date")
	}
	return s, nil
}

// Source supplies snapshots for a store and day. Implementations hide where
// collectors drop their output.
type Source interface {
	Fetch(ctx context.Context, storeKey string, day time.Time) (Snapshot, error)
}

// FileSource reads snapshot documents from <dir>/<store>/<YYYY-MM-DD>.json.
type FileSource struct {
	dir string
}

// NewFileSource creates a snapshot source over a directory tree.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Fetch loads and decodes one snapshot file.
func (f *FileSource) Fetch(_ context.Context, storeKey string, day time.Time) (Snapshot, error) {
	path := filepath.Join(f.dir, storeKey, day.Format("2006-01-02")+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, path)
		}
		return Snapshot{}, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return ParseSnapshot(data)
}

package ingest

import (
	"fmt"

	"slot-advisor/internal/config"
)

// Finding is one integrity problem detected in a snapshot. Findings are
// advisory: ingestion proceeds, the caller decides whether to log or abort.
type Finding struct {
	UnitID string
	Detail string
}

func (f Finding) String() string {
	if f.UnitID == "" {
		return f.Detail
	}
	return fmt.Sprintf("unit %s: %s", f.UnitID, f.Detail)
}

// Verify checks a snapshot against the store's configured unit membership
// and basic per-unit consistency.
func Verify(s Snapshot, profile config.StoreProfile) []Finding {
	var findings []Finding

	known := make(map[string]bool, len(profile.Units))
	for _, u := range profile.Units {
		known[u] = true
	}

	seen := make(map[string]bool, len(s.Units))
	for _, u := range s.Units {
		if seen[u.UnitID] {
			findings = append(findings, Finding{UnitID: u.UnitID, Detail: "duplicate unit in snapshot"})
			continue
		}
		seen[u.UnitID] = true

		if len(known) > 0 && !known[u.UnitID] {
			findings = append(findings, Finding{UnitID: u.UnitID, Detail: "not in configured unit list"})
		}
		if u.Failed {
			continue
		}
		if u.Games < 0 {
			findings = append(findings, Finding{UnitID: u.UnitID, Detail: "negative game count"})
		}
		if sum := hitGames(u); sum > u.Games {
			findings = append(findings, Finding{
				UnitID: u.UnitID,
				Detail: fmt.Sprintf("hit intervals total %d exceed day games %d", sum, u.Games),
			})
		}
		for _, h := range u.Hits {
			if h.Medals < 0 || h.Games < 0 {
				findings = append(findings, Finding{UnitID: u.UnitID, Detail: "negative hit field"})
				break
			}
		}
	}

	for _, u := range profile.Units {
		if !seen[u] {
			findings = append(findings, Finding{UnitID: u, Detail: "missing from snapshot"})
		}
	}
	return findings
}

func hitGames(u UnitSnapshot) int {
	sum := 0
	for _, h := range u.Hits {
		sum += h.Games
	}
	return sum
}

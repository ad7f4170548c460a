package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"slot-advisor/internal/recommend"
)

// RecommendOptions selects the store, target date, and assembly mode.
type RecommendOptions struct {
	Store string
	Date  string // YYYY-MM-DD, empty = today
	Live  bool   // omit units without fresh data instead of grading them D
}

// Recommend prints the ranking for a store and date.
func (a *App) Recommend(ctx context.Context, opts RecommendOptions) error {
	date, err := a.parseDate(opts.Date)
	if err != nil {
		return err
	}

	mode := recommend.ModeBatch
	if opts.Live {
		mode = recommend.ModeLive
	}

	rec, err := a.service.Recommend(ctx, opts.Store, date, mode)
	if err != nil {
		return err
	}
	if rec.Empty {
		fmt.Printf("no recommendations for %s on %s: %s\n",
			opts.Store, date.Format("2006-01-02"), rec.EmptyReason)
		return nil
	}

	fmt.Printf("data through %s (%d day(s) before target)\n",
		rec.AsOf.Format("2006-01-02"), rec.SnapshotAgeDays)
	for _, f := range rec.Findings {
		fmt.Printf("note: %s\n", f)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\tUNIT\tSCORE\tBONUS\tREASONS\n")
	for _, u := range rec.Units {
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%+.1f\t%s\n",
			u.Rank, u.UnitID, u.Score, u.PatternBonus, strings.Join(u.Reasons, ","))
	}
	return w.Flush()
}

package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"slot-advisor/internal/analysis"
	"slot-advisor/internal/storage"
)

// ShowOptions selects the unit history to display.
type ShowOptions struct {
	Store string
	Unit  string
	Days  int
}

// Show prints a unit's recent days with their extracted features.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	if opts.Days <= 0 {
		opts.Days = a.cfg.Scoring.WindowDays
	}
	to, err := a.parseDate("")
	if err != nil {
		return err
	}
	from := to.AddDate(0, 0, -(opts.Days - 1))

	recs, err := a.store.ListUnitRange(ctx, opts.Store, opts.Unit, from, to)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Printf("no history for %s/%s in the last %d days\n", opts.Store, opts.Unit, opts.Days)
		return nil
	}
	if err != nil {
		return err
	}

	machine := a.tables.MachineFor(opts.Store)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "DATE\tGAMES\tBIG\tPROB\tNET\tCHAIN\tSIGNAL\n")
	for _, rec := range recs {
		f := analysis.ExtractDay(rec, machine)
		if !f.Scraped {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\tabsent\n", rec.Date.Format("01/02"))
			continue
		}
		net := fmt.Sprintf("%+d", f.NetMedals)
		if f.NetEstimated {
			net += "*"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t1/%.0f\t%s\t%d\t%s %s\n",
			rec.Date.Format("01/02"), f.Games, f.BigHits, f.ProbDenominator,
			net, f.MaxChainMedals, f.Signal.Kind, f.Signal.Outcome)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	win := analysis.ExtractWindow(recs, machine)
	fmt.Printf("\nwindow: 1/%.0f over %d days, carry %dG", win.WindowDenominator, win.ObservedDays, win.CarryGames)
	if win.NearCeiling {
		fmt.Printf(" (near ceiling, %dG remaining)", win.CeilingRemaining)
	}
	if win.LikelyReset {
		fmt.Printf(" (reset suspected)")
	}
	fmt.Println()
	return nil
}

package app

import (
	"context"
	"fmt"
)

// BacktestOptions selects the store and replay range.
type BacktestOptions struct {
	Store string
	From  string // YYYY-MM-DD
	To    string // YYYY-MM-DD, empty = yesterday
}

// Backtest replays the engine over a historical range and prints accuracy
// metrics.
func (a *App) Backtest(ctx context.Context, opts BacktestOptions) error {
	if opts.From == "" {
		return fmt.Errorf("backtest requires --from")
	}
	from, err := a.parseDate(opts.From)
	if err != nil {
		return err
	}
	to, err := a.parseDate(opts.To)
	if err != nil {
		return err
	}

	m, err := a.backtest.Run(ctx, opts.Store, from, to)
	if err != nil {
		return err
	}

	fmt.Printf("backtest %s %s..%s\n", opts.Store,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Printf("  days evaluated: %d\n", m.Days)
	fmt.Printf("  picks:          %d (hit %d)\n", m.Picks, m.PickHits)
	fmt.Printf("  actual hits:    %d of %d observed unit-days\n", m.ActualHits, m.ObservedUnits)
	fmt.Printf("  precision:      %.3f\n", m.Precision())
	fmt.Printf("  coverage:       %.3f\n", m.Coverage())
	fmt.Printf("  f1:             %.3f\n", m.F1())
	return nil
}

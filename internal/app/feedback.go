package app

import (
	"context"
	"fmt"
)

// FeedbackOptions selects the store and the day to evaluate.
type FeedbackOptions struct {
	Store string
	Date  string // YYYY-MM-DD, empty = yesterday
}

// Feedback re-runs the correction pass for one store and day, then prints
// the resulting factors.
func (a *App) Feedback(ctx context.Context, opts FeedbackOptions) error {
	day, err := a.parseDate(opts.Date)
	if err != nil {
		return err
	}

	if err := a.service.FeedbackPass(ctx, opts.Store, day); err != nil {
		return err
	}

	corrections, err := a.store.ListCorrections(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("corrections after %s:\n", day.Format("2006-01-02"))
	for _, c := range corrections {
		fmt.Printf("  %s\tfactor=%s\thit_rate=%s\tsamples=%d\n",
			c.MachineKey, c.Factor.StringFixed(3), c.HitRate.StringFixed(3), c.SampleCount)
	}
	return nil
}

package app

import (
	"context"
	"fmt"
)

// IngestOptions selects what to ingest.
type IngestOptions struct {
	Store string
	Date  string // YYYY-MM-DD, empty = yesterday
}

// Ingest loads one store's snapshot for a day into the history store and
// reports integrity findings.
func (a *App) Ingest(ctx context.Context, opts IngestOptions) error {
	day, err := a.parseDate(opts.Date)
	if err != nil {
		return err
	}

	units, findings, err := a.service.IngestStore(ctx, opts.Store, day)
	if err != nil {
		return err
	}

	fmt.Printf("ingested %s %s: %d units\n", opts.Store, day.Format("2006-01-02"), units)
	for _, f := range findings {
		fmt.Printf("  warning: %s\n", f)
	}
	return nil
}

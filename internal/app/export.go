package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"slot-advisor/internal/analysis"
	"slot-advisor/internal/storage"
)

// ExportOptions selects the unit trend to render.
type ExportOptions struct {
	Store     string
	Unit      string
	Days      int
	Output    string
	CSV       bool // write a CSV table instead of a PNG chart
	MaxPoints int
}

// Export renders a unit's cumulative medal balance as a PNG chart, or as a
// CSV table when requested.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.Days <= 0 {
		opts.Days = 30
	}
	if opts.Output == "" {
		ext := "png"
		if opts.CSV {
			ext = "csv"
		}
		opts.Output = fmt.Sprintf("%s-%s.%s", opts.Store, opts.Unit, ext)
	}

	to, err := a.parseDate("")
	if err != nil {
		return err
	}
	from := to.AddDate(0, 0, -(opts.Days - 1))

	recs, err := a.store.ListUnitRange(ctx, opts.Store, opts.Unit, from, to)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no history for %s/%s in the last %d days", opts.Store, opts.Unit, opts.Days)
	}
	if err != nil {
		return err
	}

	machine := a.tables.MachineFor(opts.Store)
	var days []analysis.DayFeatures
	for _, rec := range recs {
		if !rec.Scraped {
			continue
		}
		days = append(days, analysis.ExtractDay(rec, machine))
	}

	out, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	if opts.CSV {
		if err := writeTrendCSV(out, days); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		fmt.Printf("wrote %s (%d rows)\n", opts.Output, len(days))
		return nil
	}

	n, err := renderTrendChart(out, opts, days, a.cfg.ResolveMaxPoints(opts.MaxPoints))
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d points)\n", opts.Output, n)
	return nil
}

// trendCSVHeader is the column layout of the exported table.
var trendCSVHeader = []string{
	"date", "games", "big_hits", "payout", "net_medals", "net_estimated", "signal", "cumulative_net",
}

// writeTrendCSV emits one row per observed day plus a running medal balance.
func writeTrendCSV(w io.Writer, days []analysis.DayFeatures) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trendCSVHeader); err != nil {
		return err
	}
	sum := 0
	for _, d := range days {
		sum += d.NetMedals
		row := []string{
			d.Date.Format("2006-01-02"),
			strconv.Itoa(d.Games),
			strconv.Itoa(d.BigHits),
			strconv.Itoa(d.TotalPayout),
			strconv.Itoa(d.NetMedals),
			strconv.FormatBool(d.NetEstimated),
			d.Signal.String(),
			strconv.Itoa(sum),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderTrendChart(w io.Writer, opts ExportOptions, days []analysis.DayFeatures, maxPoints int) (int, error) {
	var (
		xs  []float64
		ys  []float64
		sum float64
	)
	for _, d := range days {
		sum += float64(d.NetMedals)
		xs = append(xs, float64(d.Date.Unix()))
		ys = append(ys, sum)
		if len(xs) >= maxPoints {
			break
		}
	}
	if len(xs) < 2 {
		return 0, fmt.Errorf("not enough data points to chart %s/%s", opts.Store, opts.Unit)
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s unit %s", opts.Store, opts.Unit),
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return timeLabel(int64(f))
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "cumulative net medals",
				XValues: xs,
				YValues: ys,
			},
		},
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return 0, fmt.Errorf("render chart: %w", err)
	}
	return len(xs), nil
}

func timeLabel(unix int64) string {
	return time.Unix(unix, 0).Format("01/02")
}

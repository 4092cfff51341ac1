package app

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"tradepilot/internal/rules"
)

// Export renders decision history as CSV and/or a PNG spend chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-time.Duration(opts.MaxPoints) * a.Config.Scheduler.Interval)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	entries, err := store.ListLogsBetween(ctx, from, to)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		a.Logger.Info().Msg("no log entries found for export window")
		return nil
	}

	downsampled := downsampleEntries(entries, opts.MaxPoints)
	a.Logger.Info().Int("total", len(entries)).Int("exported", len(downsampled)).Msg("exporting decision history")

	if opts.CSVPath != "" {
		if err := writeEntriesCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := a.writeSpendPNG(opts.PNGPath, entries); err != nil {
			return err
		}
	}

	return nil
}

func downsampleEntries(entries []rules.LogEntry, max int) []rules.LogEntry {
	if max <= 0 || len(entries) <= max {
		return entries
	}

	result := make([]rules.LogEntry, 0, max)
	step := float64(len(entries)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(entries) {
			idx = len(entries) - 1
		}
		result = append(result, entries[idx])
	}
	return result
}

func writeEntriesCSV(path string, entries []rules.LogEntry) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"created_at", "rule_id", "owner_address", "action", "status", "details"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, entry := range entries {
		ruleID := ""
		if entry.RuleID != nil {
			ruleID = *entry.RuleID
		}
		record := []string{
			entry.CreatedAt.UTC().Format(time.RFC3339),
			ruleID,
			entry.OwnerAddress,
			string(entry.Action),
			string(entry.Status),
			sanitizeInline(string(entry.Details)),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

// writeSpendPNG charts per-firing spend plus cumulative spend for every
// executed (or simulated) firing in the window.
func (a *App) writeSpendPNG(path string, entries []rules.LogEntry) error {
	x := make([]time.Time, 0, len(entries))
	spend := make([]float64, 0, len(entries))
	cumulative := make([]float64, 0, len(entries))

	total := decimal.Zero
	for _, entry := range entries {
		if entry.Action != rules.ActionPollerTriggered {
			continue
		}
		var payload struct {
			Plan rules.TradePlan `json:"plan"`
		}
		if err := json.Unmarshal(entry.Details, &payload); err != nil {
			continue
		}
		total = total.Add(payload.Plan.TotalSpendUSD)
		x = append(x, entry.CreatedAt)
		spend = append(spend, payload.Plan.TotalSpendUSD.InexactFloat64())
		cumulative = append(cumulative, total.InexactFloat64())
	}

	if len(x) < 2 {
		a.Logger.Info().Int("firings", len(x)).Msg("not enough firings to chart; skipping PNG")
		return nil
	}

	if err := ensureDir(path); err != nil {
		return err
	}

	usdFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Spend per firing (USD)",
			ValueFormatter: usdFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Cumulative spend (USD)",
			ValueFormatter: usdFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Spend",
				XValues: x,
				YValues: spend,
			},
			chart.TimeSeries{
				Name:    "Cumulative",
				XValues: x,
				YValues: cumulative,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"market-screener/src/logger"
	"market-screener/src/models"
)

// -----------------------------------------------------------------------------
// Scenario bookkeeping and console output.
// -----------------------------------------------------------------------------

type checker struct {
	log    *logger.Logger
	passed int
	failed int
}

func newChecker(log *logger.Logger) *checker {
	return &checker{log: log}
}

// NoError aborts the scenario: later steps depend on the failed one.
func (c *checker) NoError(name string, err error) {
	if err != nil {
		c.log.Error("FAIL %s: %v", name, err)
		os.Exit(1)
	}
	c.passed++
}

func (c *checker) True(name string, ok bool) {
	if ok {
		c.passed++
		c.log.Info("ok   %s", name)
		return
	}
	c.failed++
	c.log.Error("FAIL %s", name)
}

func (c *checker) Summary() {
	if c.failed > 0 {
		c.log.Error("%d of %d checks failed", c.failed, c.passed+c.failed)
		os.Exit(1)
	}
	c.log.Info("All %d checks passed", c.passed)
}

// -----------------------------------------------------------------------------

func printReports(reports []*models.MRefreshReport) {
	for _, r := range reports {
		fmt.Printf("\nRefresh %-4s: +%d bars, %d failed, %.2fs, last refresh %s\n",
			r.Base, r.TotalAdded, len(r.Failed), r.DurationSeconds,
			r.LastRefresh.UTC().Format(time.RFC3339))
	}
}

// -----------------------------------------------------------------------------

func printTable(t *models.MCombinedTable) {
	fmt.Printf("\nCombined table: %d symbols, column groups [%s]\n",
		len(t.Symbols), strings.Join(suffixNames(t.Suffixes), " "))
	for _, symbol := range t.Symbols {
		line := fmt.Sprintf("  %-6s", symbol)
		for _, suffix := range t.Suffixes {
			row, ok := t.Row(symbol, suffix)
			if !ok {
				line += fmt.Sprintf(" %10s", "-")
				continue
			}
			line += fmt.Sprintf(" %10s", formatScore(row.MarketCycle))
		}
		fmt.Println(line)
	}
}

func suffixNames(suffixes []string) []string {
	names := make([]string, len(suffixes))
	for i, suffix := range suffixes {
		if suffix == "" {
			names[i] = "daily"
			continue
		}
		names[i] = suffix
	}
	return names
}

func formatScore(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.2f", v)
}

// countWarm counts symbols whose MarketCycle under the suffix is defined.
func countWarm(t *models.MCombinedTable, suffix string) int {
	warm := 0
	for _, symbol := range t.Symbols {
		if row, ok := t.Row(symbol, suffix); ok && !math.IsNaN(row.MarketCycle) {
			warm++
		}
	}
	return warm
}

// -----------------------------------------------------------------------------

func printScreen(label string, t *models.MCombinedTable) {
	fmt.Printf("\nScreen %s: %d symbols [%s]\n", label, len(t.Symbols), strings.Join(t.Symbols, " "))
}

// -----------------------------------------------------------------------------

func printFrame(f *models.MHistoricalFrame) {
	if f.Len() == 0 {
		fmt.Printf("\nHistorical %s: empty frame\n", f.Symbol)
		return
	}
	fmt.Printf("\nHistorical %s on %s backbone: %d rows, %s .. %s\n",
		f.Symbol, f.Backbone, f.Len(),
		f.Timestamps[0].UTC().Format(time.RFC3339),
		f.Timestamps[f.Len()-1].UTC().Format(time.RFC3339))
	for _, name := range f.ScoreOrder {
		fmt.Printf("  score %-6s: %d points, %d defined, last %s\n",
			name, len(f.Scores[name]), countDefined(f.Scores[name]), lastDefined(f.Scores[name]))
	}
}

func countDefined(values []float64) int {
	defined := 0
	for _, v := range values {
		if !math.IsNaN(v) {
			defined++
		}
	}
	return defined
}

func lastDefined(values []float64) string {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return fmt.Sprintf("%.2f", values[i])
		}
	}
	return "nan"
}

// -----------------------------------------------------------------------------

func printTimeseries(ts *models.MTimeseries) {
	fmt.Printf("\nTimeseries %s (%d points per column)\n", ts.Symbol, len(ts.DailyScore))
	fmt.Printf("  daily score    %s\n", formatTail(ts.DailyScore, 5))
	fmt.Printf("  intraday score %s\n", formatTail(ts.IntradayScore, 5))
	fmt.Printf("  daily close    %s\n", formatTail(ts.DailyClose, 5))
	fmt.Printf("  intraday close %s\n", formatTail(ts.IntradayClose, 5))
}

func formatTail(values []float64, n int) string {
	if len(values) > n {
		values = values[len(values)-n:]
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	return "... " + strings.Join(parts, " ")
}

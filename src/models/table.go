package models

import (
	"math"
	"sort"
	"time"
)

// MIndicatorRow is the newest composite snapshot of one symbol at one
// resolution: the last bar's fields plus the MarketCycle score and its one-
// and two-bar lags. Score fields may be NaN while the series warms up.
type MIndicatorRow struct {
	Symbol           string    `json:"symbol"`
	Timestamp        time.Time `json:"timestamp"`
	Open             float64   `json:"open"`
	High             float64   `json:"high"`
	Low              float64   `json:"low"`
	Close            float64   `json:"close"`
	Volume           float64   `json:"volume"`
	Trades           int64     `json:"trades"`
	MarketCycle      float64   `json:"market_cycle"`
	PrevMarketCycle  float64   `json:"prev_market_cycle"`
	Prev2MarketCycle float64   `json:"prev2_market_cycle"`
}

// -----------------------------------------------------------------------------

// MCombinedTable is the outer join of per-resolution indicator rows on
// symbol. Rows is keyed by symbol, then by table suffix ("" is the daily
// column group). A symbol present in any resolution appears; resolutions it
// is missing from simply have no cell.
type MCombinedTable struct {
	Symbols  []string                            `json:"symbols"`
	Suffixes []string                            `json:"suffixes"`
	Rows     map[string]map[string]MIndicatorRow `json:"rows"`
}

func NewCombinedTable(suffixes []string) *MCombinedTable {
	return &MCombinedTable{
		Suffixes: append([]string(nil), suffixes...),
		Rows:     make(map[string]map[string]MIndicatorRow),
	}
}

// -----------------------------------------------------------------------------

// Set stores one cell, creating the symbol entry on first use.
func (t *MCombinedTable) Set(suffix string, row MIndicatorRow) {
	cells, ok := t.Rows[row.Symbol]
	if !ok {
		cells = make(map[string]MIndicatorRow)
		t.Rows[row.Symbol] = cells
	}
	cells[suffix] = row
}

// Row returns the cell for a symbol under a suffix.
func (t *MCombinedTable) Row(symbol, suffix string) (MIndicatorRow, bool) {
	cells, ok := t.Rows[symbol]
	if !ok {
		return MIndicatorRow{}, false
	}
	row, ok := cells[suffix]
	return row, ok
}

// Finalize rebuilds the sorted symbol index. Call after the last Set.
func (t *MCombinedTable) Finalize() {
	t.Symbols = make([]string, 0, len(t.Rows))
	for symbol := range t.Rows {
		t.Symbols = append(t.Symbols, symbol)
	}
	sort.Strings(t.Symbols)
}

// Select returns a sub-table holding only the given symbols, preserving
// suffix order and sorted symbol order.
func (t *MCombinedTable) Select(symbols []string) *MCombinedTable {
	out := NewCombinedTable(t.Suffixes)
	for _, symbol := range symbols {
		if cells, ok := t.Rows[symbol]; ok {
			for suffix, row := range cells {
				out.Set(suffix, row)
			}
		}
	}
	out.Finalize()
	return out
}

// LatestClose implements the price lookup consumers use: the close of the
// daily (unsuffixed) cell, falling back to the first suffix that has one.
func (t *MCombinedTable) LatestClose(symbol string) (float64, bool) {
	if row, ok := t.Row(symbol, ""); ok && !math.IsNaN(row.Close) {
		return row.Close, true
	}
	for _, suffix := range t.Suffixes {
		if row, ok := t.Row(symbol, suffix); ok && !math.IsNaN(row.Close) {
			return row.Close, true
		}
	}
	return 0, false
}

// -----------------------------------------------------------------------------

// MHistoricalFrame carries a symbol's backbone OHLCV columns plus one
// MarketCycle column per requested resolution, backward-aligned onto the
// backbone timestamps. Score cells are NaN before the first coarse value.
type MHistoricalFrame struct {
	Symbol     string               `json:"symbol"`
	Backbone   string               `json:"backbone"`
	Timestamps []time.Time          `json:"timestamps"`
	Open       []float64            `json:"open"`
	High       []float64            `json:"high"`
	Low        []float64            `json:"low"`
	Close      []float64            `json:"close"`
	Volume     []float64            `json:"volume"`
	Trades     []int64              `json:"trades"`
	Scores     map[string][]float64 `json:"scores"`
	ScoreOrder []string             `json:"score_order"`
}

func (f *MHistoricalFrame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Timestamps)
}

// -----------------------------------------------------------------------------

// MTimeseries is the short sparkline extraction: the last points of the
// daily and intraday MarketCycle and close series, columns padded with
// zeros to a common length.
type MTimeseries struct {
	Symbol        string    `json:"symbol"`
	DailyScore    []float64 `json:"daily_score"`
	IntradayScore []float64 `json:"intraday_score"`
	DailyClose    []float64 `json:"daily_close"`
	IntradayClose []float64 `json:"intraday_close"`
}

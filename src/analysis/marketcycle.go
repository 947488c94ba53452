package analysis

import (
	"market-screener/src/analysis/core"
	"market-screener/src/models"
)

// -----------------------------------------------------------------------------

// MarketCycleFrame pairs a bar series with its composite score column and
// the one- and two-bar lags the screen predicates read.
type MarketCycleFrame struct {
	Series *models.MSeries
	Score  []float64
	Prev   []float64
	Prev2  []float64
}

// -----------------------------------------------------------------------------

// BuildMarketCycle computes the composite score columns for one series.
// All three component indicators read the close column.
func BuildMarketCycle(s *models.MSeries, p core.MarketCycleParams) *MarketCycleFrame {
	closes := s.Closes()
	score := core.MarketCycle(closes, closes, closes, p)
	return &MarketCycleFrame{
		Series: s,
		Score:  score,
		Prev:   core.Shift(score, 1),
		Prev2:  core.Shift(score, 2),
	}
}

// -----------------------------------------------------------------------------

// LastRow flattens the newest slot into an indicator row, false when the
// series is empty. Score fields may be NaN while the series warms up; the
// row is still emitted and NaN simply never passes a screen predicate.
func (f *MarketCycleFrame) LastRow() (models.MIndicatorRow, bool) {
	n := f.Series.Len()
	if n == 0 {
		return models.MIndicatorRow{}, false
	}
	bar := f.Series.Bars[n-1]
	return models.MIndicatorRow{
		Symbol:           f.Series.Symbol,
		Timestamp:        bar.Timestamp,
		Open:             bar.Open,
		High:             bar.High,
		Low:              bar.Low,
		Close:            bar.Close,
		Volume:           bar.Volume,
		Trades:           bar.Trades,
		MarketCycle:      f.Score[n-1],
		PrevMarketCycle:  f.Prev[n-1],
		Prev2MarketCycle: f.Prev2[n-1],
	}, true
}

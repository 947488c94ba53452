package server

import (
	"math"
	"time"

	"market-screener/src/models"
)

// -----------------------------------------------------------------------------
// Wire projection: encoding/json cannot emit NaN, so undefined scores
// become nulls before anything reaches a socket.
// -----------------------------------------------------------------------------

func floatPtr(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// -----------------------------------------------------------------------------

func floatsToPtrs(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = floatPtr(v)
	}
	return out
}

// -----------------------------------------------------------------------------

func rowToCell(row models.MIndicatorRow) models.MTableCell {
	return models.MTableCell{
		Timestamp:        row.Timestamp.UnixMilli(),
		Open:             floatPtr(row.Open),
		High:             floatPtr(row.High),
		Low:              floatPtr(row.Low),
		Close:            floatPtr(row.Close),
		Volume:           floatPtr(row.Volume),
		Trades:           row.Trades,
		MarketCycle:      floatPtr(row.MarketCycle),
		PrevMarketCycle:  floatPtr(row.PrevMarketCycle),
		Prev2MarketCycle: floatPtr(row.Prev2MarketCycle),
	}
}

// -----------------------------------------------------------------------------

// tableToUpdate projects a combined table onto the update payload.
func tableToUpdate(table *models.MCombinedTable, metrics models.MScreenerMetrics, kind string) *models.MScreenerUpdate {
	update := &models.MScreenerUpdate{
		Type:      kind,
		Symbols:   table.Symbols,
		Suffixes:  table.Suffixes,
		Table:     make(map[string]map[string]models.MTableCell, len(table.Rows)),
		Timestamp: time.Now().UnixMilli(),
		Metrics:   metrics,
	}
	for symbol, cells := range table.Rows {
		wire := make(map[string]models.MTableCell, len(cells))
		for suffix, row := range cells {
			wire[suffix] = rowToCell(row)
		}
		update.Table[symbol] = wire
	}
	return update
}

// -----------------------------------------------------------------------------

// historicalWire is the JSON-safe projection of a historical frame. The
// OHLCV columns come straight from bars and never hold NaN; the score
// columns do, so they go out as nullable.
type historicalWire struct {
	Symbol     string                `json:"symbol"`
	Backbone   string                `json:"backbone"`
	Timestamps []int64               `json:"timestamps"`
	Open       []float64             `json:"open"`
	High       []float64             `json:"high"`
	Low        []float64             `json:"low"`
	Close      []float64             `json:"close"`
	Volume     []float64             `json:"volume"`
	Trades     []int64               `json:"trades"`
	Scores     map[string][]*float64 `json:"scores"`
	ScoreOrder []string              `json:"score_order"`
}

func frameToWire(frame *models.MHistoricalFrame) historicalWire {
	timestamps := make([]int64, len(frame.Timestamps))
	for i, ts := range frame.Timestamps {
		timestamps[i] = ts.UnixMilli()
	}
	scores := make(map[string][]*float64, len(frame.Scores))
	for suffix, col := range frame.Scores {
		scores[suffix] = floatsToPtrs(col)
	}
	return historicalWire{
		Symbol:     frame.Symbol,
		Backbone:   frame.Backbone,
		Timestamps: timestamps,
		Open:       frame.Open,
		High:       frame.High,
		Low:        frame.Low,
		Close:      frame.Close,
		Volume:     frame.Volume,
		Trades:     frame.Trades,
		Scores:     scores,
		ScoreOrder: frame.ScoreOrder,
	}
}

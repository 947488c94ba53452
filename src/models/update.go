package models

// -----------------------------------------------------------------------------
// Websocket payloads pushed by the server after each refresh cycle.
// -----------------------------------------------------------------------------

// MTableCell is the wire-safe projection of an MIndicatorRow: undefined
// scores become null instead of NaN, which encoding/json cannot emit.
type MTableCell struct {
	Timestamp        int64    `json:"timestamp"`
	Open             *float64 `json:"open"`
	High             *float64 `json:"high"`
	Low              *float64 `json:"low"`
	Close            *float64 `json:"close"`
	Volume           *float64 `json:"volume"`
	Trades           int64    `json:"trades"`
	MarketCycle      *float64 `json:"market_cycle"`
	PrevMarketCycle  *float64 `json:"prev_market_cycle"`
	Prev2MarketCycle *float64 `json:"prev2_market_cycle"`
}

// MScreenerUpdate carries the rebuilt combined table. Type is "INITIAL" for
// the first frame a client receives and "UPDATE" afterwards.
type MScreenerUpdate struct {
	Type      string                           `json:"type"`
	Symbols   []string                         `json:"symbols"`
	Suffixes  []string                         `json:"suffixes"`
	Table     map[string]map[string]MTableCell `json:"table"`
	Timestamp int64                            `json:"timestamp"`
	Metrics   MScreenerMetrics                 `json:"metrics"`
}

// -----------------------------------------------------------------------------

// MTableBroadcast bundles a freshly built table with its cycle metrics.
// The refresh loop hands this to the data exchanger, which projects it onto
// the wire format before fanning it out.
type MTableBroadcast struct {
	Table   *MCombinedTable
	Metrics MScreenerMetrics
}

// -----------------------------------------------------------------------------

// MSubscribeCommand is the only client-to-server websocket message.
type MSubscribeCommand struct {
	Command string   `json:"command"`
	Symbols []string `json:"symbols"`
}

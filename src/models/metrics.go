package models

// MScreenerMetrics captures pipeline timings and sizes for the most recent
// refresh cycle.
type MScreenerMetrics struct {
	RefreshSeconds    float64 `json:"refresh_seconds"`
	BuildSeconds      float64 `json:"build_seconds"`
	SymbolsTracked    int     `json:"symbols_tracked"`
	RowsBuilt         int     `json:"rows_built"`
	BarsCachedFine    int     `json:"bars_cached_fine"`
	BarsCachedCoarse  int     `json:"bars_cached_coarse"`
	LastRefreshFine   int64   `json:"last_refresh_fine"`
	LastRefreshCoarse int64   `json:"last_refresh_coarse"`
}

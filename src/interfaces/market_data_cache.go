package interfaces

import (
	"context"
	"time"

	"market-screener/src/models"
)

// IMarketDataCache is the bar-history layer the screener builds on: base
// series kept incrementally fresh, derived resolutions resampled on read.
type IMarketDataCache interface {
	// Load restores persisted snapshots into memory. Called once at startup.
	Load() error

	// Refresh pulls the delta for one base resolution ("1min" or "1d") from
	// the provider, appends it and persists the result. Per-symbol provider
	// failures degrade into the report; only storage errors surface.
	Refresh(ctx context.Context, base string) (*models.MRefreshReport, error)

	// Get returns one symbol's series at any supported resolution, resampled
	// from its base on the fly. Unknown symbols yield an empty series.
	Get(symbol, resolution string) (*models.MSeries, error)

	// GetAll returns every tracked symbol's series at one resolution.
	GetAll(resolution string) (map[string]*models.MSeries, error)

	// LastRefresh reports when a base was last successfully refreshed.
	LastRefresh(base string) time.Time

	// BarsCached counts the bars held across all symbols of a base.
	BarsCached(base string) int
}

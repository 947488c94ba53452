package interfaces

import (
	"context"
	"time"

	"market-screener/src/models"
)

// IScreener is the pipeline surface the serving layer drives: refresh the
// base data, build the combined table, filter it, and extract per-symbol
// views.
type IScreener interface {
	// RefreshData refreshes the base series the given resolutions derive
	// from (one provider pass per base, never per resolution).
	RefreshData(ctx context.Context, resolutions []string) ([]*models.MRefreshReport, error)

	// Build assembles the combined indicator table across resolutions,
	// truncated at cutoff (zero cutoff means now).
	Build(ctx context.Context, resolutions []string, cutoff time.Time) (*models.MCombinedTable, error)

	// Screen filters a built table; filters AND together and NaN never
	// passes.
	Screen(table *models.MCombinedTable, filters []models.MFilter) *models.MCombinedTable

	// Historical returns one symbol's backbone frame with every requested
	// resolution's score column aligned backward onto it.
	Historical(ctx context.Context, symbol string, resolutions []string, cutoff time.Time) (*models.MHistoricalFrame, error)

	// GetTimeseries returns the fixed-length daily and intraday sparkline
	// columns for one symbol.
	GetTimeseries(symbol string, lastN int) (*models.MTimeseries, error)
}

package interfaces

import (
	"context"
	"market-screener/src/models"
	"time"
)

// -----------------------------------------------------------------------------
// IMarketDataProvider defines the contract for the upstream bar data API.
// -----------------------------------------------------------------------------

type IMarketDataProvider interface {

	// -----------------------------------------------------------------------------

	// Name returns the provider identifier ("polygon", ...).
	Name() string

	// -----------------------------------------------------------------------------

	// FetchBars returns OHLCV bars for one symbol, ascending by timestamp,
	// possibly empty. Completeness is not guaranteed; gaps are legal. The
	// context bounds the whole fetch including retries.
	FetchBars(ctx context.Context, symbol string, from, to time.Time, granularity models.Granularity) ([]models.MBar, error)
}

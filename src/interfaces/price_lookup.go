package interfaces

// -----------------------------------------------------------------------------
// IPriceLookup is the single capability downstream consumers need from a
// built table: the latest close of a symbol.
// -----------------------------------------------------------------------------

type IPriceLookup interface {

	// -----------------------------------------------------------------------------

	// LatestClose returns the newest close price for the symbol, false when
	// the symbol is unknown.
	LatestClose(symbol string) (float64, bool)
}

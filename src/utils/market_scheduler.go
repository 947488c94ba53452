package utils

import (
	"sync"
	"time"

	"market-screener/src/logger"
)

// MarketScheduler decides whether a refresh cycle is worth running: it maps
// every tracked symbol (plus any explicitly configured venue) onto its
// trading calendar and reports when at least one of them is in session.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar
	Logger    *logger.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(symbols, mics []string, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
	}
	ms.Remap(symbols, mics)
	return ms
}

// -----------------------------------------------------------------------------

// Remap rebuilds the calendar table from scratch. Explicit MICs cover
// venues the tracked symbols do not reveal through a ticker suffix.
func (ms *MarketScheduler) Remap(symbols, mics []string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.Calendars = make(map[string]*TradingCalendar)
	for _, symbol := range symbols {
		ms.Calendars[symbol] = GetCalendar(symbol)
	}
	for _, mic := range mics {
		ms.Calendars["mic:"+mic] = GetCalendarByMIC(mic)
	}

	ms.Logger.Info("MarketScheduler: mapped %d symbols and %d explicit calendars",
		len(symbols), len(mics))
}

// -----------------------------------------------------------------------------

// AnyMarketOpen reports whether any tracked venue is currently in session.
func (ms *MarketScheduler) AnyMarketOpen() bool {
	now := time.Now().UTC()

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, cal := range ms.Calendars {
		if cal.IsOpenOnMinute(now) {
			return true
		}
	}
	return false
}

package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"market-screener/src/analysis"
	"market-screener/src/helpers"
	"market-screener/src/interfaces"
	"market-screener/src/logger"
	"market-screener/src/models"
)

// -----------------------------------------------------------------------------

// MarketDataCache owns the two base bar series (1-minute and 1-day) for
// every tracked symbol. Refreshes are incremental and delta-only; reads are
// resampled views. refreshMu serializes writers (including snapshot
// persistence), mu guards the series maps, so reads stay available while a
// refresh is fetching.
type MarketDataCache struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Provider interfaces.IMarketDataProvider
	Store    interfaces.ISnapshotStore

	refreshMu sync.Mutex
	mu        sync.RWMutex

	bases       map[string]map[string]*models.MSeries
	lastRefresh map[string]time.Time

	now func() time.Time
}

// -----------------------------------------------------------------------------

func NewMarketDataCache(cfg *models.MConfig, log *logger.Logger, provider interfaces.IMarketDataProvider, store interfaces.ISnapshotStore) *MarketDataCache {
	return &MarketDataCache{
		Config:   cfg,
		Logger:   log,
		Provider: provider,
		Store:    store,
		bases: map[string]map[string]*models.MSeries{
			models.Resolution1Min: make(map[string]*models.MSeries),
			models.Resolution1D:   make(map[string]*models.MSeries),
		},
		lastRefresh: make(map[string]time.Time),
		now:         time.Now,
	}
}

// -----------------------------------------------------------------------------

// Load hydrates both bases from the snapshot store. A missing snapshot
// leaves that base empty; it is not an error.
func (c *MarketDataCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, base := range []string{models.Resolution1Min, models.Resolution1D} {
		series, lastRefresh, err := c.Store.LoadSnapshot(base)
		if err != nil {
			return helpers.NewStorageError(fmt.Sprintf("loading %s snapshot", base), err)
		}
		if len(series) > 0 {
			c.bases[base] = series
		}
		c.lastRefresh[base] = lastRefresh

		bars := 0
		for _, s := range series {
			bars += s.Len()
		}
		c.Logger.Info("Loaded %s snapshot: %d symbols, %d bars (last refresh %s)",
			base, len(series), bars, formatRefresh(lastRefresh))
	}
	return nil
}

func formatRefresh(ts time.Time) string {
	if ts.IsZero() {
		return "never"
	}
	return ts.UTC().Format(time.RFC3339)
}

// -----------------------------------------------------------------------------

func granularityFor(base string) (models.Granularity, time.Duration, error) {
	switch base {
	case models.Resolution1Min:
		return models.GranularityMinute, time.Minute, nil
	case models.Resolution1D:
		return models.GranularityDay, 24 * time.Hour, nil
	default:
		return "", 0, helpers.NewConfigurationError(
			fmt.Sprintf("refresh supports only the %q and %q bases, got %q",
				models.Resolution1Min, models.Resolution1D, base), nil)
	}
}

// -----------------------------------------------------------------------------

// Refresh tops up one base resolution with bars strictly newer than each
// symbol's last cached timestamp. A provider failure degrades to an empty
// delta for that symbol and never aborts the sweep. On success the full
// snapshot and the new last-refresh instant are persisted and reported.
// Calling Refresh again immediately adds nothing.
func (c *MarketDataCache) Refresh(ctx context.Context, base string) (*models.MRefreshReport, error) {
	gran, step, err := granularityFor(base)
	if err != nil {
		return nil, err
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	start := c.now()
	now := start.UTC()

	// Decide the fetch window per symbol under the read lock.
	type fetchJob struct {
		symbol string
		from   time.Time
	}
	var jobs []fetchJob
	c.mu.RLock()
	for _, symbol := range c.Config.Screener.Symbols {
		if from, ok := c.fetchWindow(base, step, c.bases[base][symbol], now); ok {
			jobs = append(jobs, fetchJob{symbol: symbol, from: from})
		}
	}
	c.mu.RUnlock()

	report := &models.MRefreshReport{Base: base, BarsAdded: make(map[string]int)}

	// Fetch deltas without holding the series lock; reads stay available.
	deltas := make(map[string][]models.MBar, len(jobs))
	for _, job := range jobs {
		bars, err := c.Provider.FetchBars(ctx, job.symbol, job.from, now, gran)
		if err != nil {
			c.Logger.Warning("Refresh %s: fetch failed for %s, keeping cached series: %v", base, job.symbol, err)
			report.Failed = append(report.Failed, job.symbol)
			continue
		}
		deltas[job.symbol] = bars
	}

	// Apply the deltas.
	c.mu.Lock()
	bucket := c.bases[base]
	for _, symbol := range c.Config.Screener.Symbols {
		series, ok := bucket[symbol]
		if !ok {
			series = models.NewSeries(symbol)
			bucket[symbol] = series
		}
		if added := series.Append(deltas[symbol]); added > 0 {
			report.BarsAdded[symbol] = added
			report.TotalAdded += added
		}
	}
	c.lastRefresh[base] = now
	c.mu.Unlock()

	report.LastRefresh = now
	report.DurationSeconds = c.now().Sub(start).Seconds()

	// Persist the whole base; refreshMu still excludes other writers.
	c.mu.RLock()
	err = c.Store.SaveSnapshot(base, bucket, now)
	c.mu.RUnlock()
	if err != nil {
		return report, helpers.NewStorageError(fmt.Sprintf("persisting %s snapshot", base), err)
	}

	c.Logger.Info("Refreshed %s base: +%d bars across %d symbols (%d failed) in %.2fs",
		base, report.TotalAdded, len(report.BarsAdded), len(report.Failed), report.DurationSeconds)
	return report, nil
}

// -----------------------------------------------------------------------------

// fetchWindow picks the fetch start for one symbol. An empty series gets
// the full configured history. Otherwise the delta starts one step after
// the newest cached bar, and the provider call is skipped entirely while
// that step still lands on today: no newer complete calendar day can exist.
func (c *MarketDataCache) fetchWindow(base string, step time.Duration, series *models.MSeries, now time.Time) (time.Time, bool) {
	last, ok := series.LastTimestamp()
	if !ok {
		if base == models.Resolution1Min {
			return now.AddDate(0, 0, -c.Config.Provider.IntradayDays), true
		}
		startDate, err := time.Parse("2006-01-02", c.Config.Provider.DailyStartDate)
		if err != nil {
			// Validated at startup; fall back to the intraday window.
			startDate = now.AddDate(0, 0, -c.Config.Provider.IntradayDays)
		}
		return startDate, true
	}

	next := last.Add(step)
	if !dayOf(next).Before(dayOf(now)) {
		return time.Time{}, false
	}
	return next, true
}

func dayOf(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// -----------------------------------------------------------------------------

// Get returns one symbol's series resampled to the requested resolution.
// Unknown symbols yield an empty series; an unsupported resolution is a
// configuration error, never a silent empty result.
func (c *MarketDataCache) Get(symbol, resolution string) (*models.MSeries, error) {
	base, ok := models.BaseOf(resolution)
	if !ok {
		return nil, helpers.NewConfigurationError(fmt.Sprintf("unsupported resolution %q", resolution), nil)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	series, found := c.bases[base][symbol]
	if !found {
		return models.NewSeries(symbol), nil
	}
	return analysis.Resample(series, resolution)
}

// -----------------------------------------------------------------------------

// GetAll returns the resampled series of every tracked symbol. Symbols with
// no cached data map to empty series so callers see the full universe.
func (c *MarketDataCache) GetAll(resolution string) (map[string]*models.MSeries, error) {
	base, ok := models.BaseOf(resolution)
	if !ok {
		return nil, helpers.NewConfigurationError(fmt.Sprintf("unsupported resolution %q", resolution), nil)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]*models.MSeries, len(c.Config.Screener.Symbols))
	for _, symbol := range c.Config.Screener.Symbols {
		series, found := c.bases[base][symbol]
		if !found {
			out[symbol] = models.NewSeries(symbol)
			continue
		}
		view, err := analysis.Resample(series, resolution)
		if err != nil {
			return nil, err
		}
		out[symbol] = view
	}
	return out, nil
}

// -----------------------------------------------------------------------------

// LastRefresh reports when the base was last refreshed; zero means never.
func (c *MarketDataCache) LastRefresh(base string) time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh[base]
}

// BarsCached counts the bars held for one base across all symbols.
func (c *MarketDataCache) BarsCached(base string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, series := range c.bases[base] {
		total += series.Len()
	}
	return total
}

package screener

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"market-screener/src/analysis"
	"market-screener/src/analysis/core"
	"market-screener/src/helpers"
	"market-screener/src/interfaces"
	"market-screener/src/logger"
	"market-screener/src/models"
)

// -----------------------------------------------------------------------------

// Screener drives the pipeline end to end: refresh the base series behind
// the requested resolutions, build the combined multi-timeframe indicator
// table, screen it with filter predicates, and extract per-symbol views.
type Screener struct {
	Config *models.MConfig
	Logger *logger.Logger
	Cache  interfaces.IMarketDataCache

	params core.MarketCycleParams
}

func NewScreener(config *models.MConfig, log *logger.Logger, cache interfaces.IMarketDataCache) *Screener {
	return &Screener{
		Config: config,
		Logger: log,
		Cache:  cache,
		params: paramsFromConfig(config),
	}
}

// paramsFromConfig maps the screener config section onto indicator windows
// and weights, keeping the stock defaults for anything left at zero.
func paramsFromConfig(config *models.MConfig) core.MarketCycleParams {
	p := core.DefaultMarketCycleParams()
	sc := config.Screener
	if sc.DonchianPeriod > 0 {
		p.DonchianPeriod = sc.DonchianPeriod
	}
	if sc.DonchianSmooth > 0 {
		p.DonchianSmooth = sc.DonchianSmooth
	}
	if sc.RSIPeriod > 0 {
		p.RSIPeriod = sc.RSIPeriod
	}
	if sc.RSISmooth > 0 {
		p.RSISmooth = sc.RSISmooth
	}
	if sc.SRSIPeriod > 0 {
		p.SRSIPeriod = sc.SRSIPeriod
	}
	if sc.SRSISmooth > 0 {
		p.SRSISmooth = sc.SRSISmooth
	}
	if sc.SRSIK > 0 {
		p.SRSIK = sc.SRSIK
	}
	if sc.SRSID > 0 {
		p.SRSID = sc.SRSID
	}
	if sc.Weights.RSI > 0 {
		p.WeightRSI = sc.Weights.RSI
	}
	if sc.Weights.SRSI > 0 {
		p.WeightSRSI = sc.Weights.SRSI
	}
	if sc.Weights.DCO > 0 {
		p.WeightDCO = sc.Weights.DCO
	}
	return p
}

// validateResolutions rejects unknown names up front and drops duplicates,
// preserving order.
func validateResolutions(resolutions []string) ([]string, error) {
	if len(resolutions) == 0 {
		return nil, helpers.NewConfigurationError("no resolutions requested", nil)
	}
	out := make([]string, 0, len(resolutions))
	seen := make(map[string]bool, len(resolutions))
	for _, r := range resolutions {
		if !models.IsSupportedResolution(r) {
			return nil, helpers.NewConfigurationError(fmt.Sprintf("unsupported resolution %q", r), nil)
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Refresh
// -----------------------------------------------------------------------------

// RefreshData refreshes the base series the requested resolutions derive
// from. Any intraday resolution maps to the 1min base, anything from 1h up
// maps to the 1d base; each base is refreshed once no matter how many
// resolutions point at it. Per-symbol provider failures stay inside the
// reports; an error here means storage or a cancelled context.
func (s *Screener) RefreshData(ctx context.Context, resolutions []string) ([]*models.MRefreshReport, error) {
	resolutions, err := validateResolutions(resolutions)
	if err != nil {
		return nil, err
	}

	needFine, needCoarse := false, false
	for _, r := range resolutions {
		if models.IsIntraday(r) {
			needFine = true
		}
		if models.NeedsCoarseRefresh(r) {
			needCoarse = true
		}
	}
	bases := make([]string, 0, 2)
	if needFine {
		bases = append(bases, models.Resolution1Min)
	}
	if needCoarse {
		bases = append(bases, models.Resolution1D)
	}

	reports := make([]*models.MRefreshReport, 0, len(bases))
	for _, base := range bases {
		report, err := s.Cache.Refresh(ctx, base)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
		s.Logger.Info("Refreshed %s base: +%d bars, %d symbols failed, %.2fs",
			base, report.TotalAdded, len(report.Failed), report.DurationSeconds)
	}
	return reports, nil
}

// -----------------------------------------------------------------------------
// Build
// -----------------------------------------------------------------------------

// Build assembles the combined indicator table: for every requested
// resolution it computes the newest row per symbol and outer-joins the rows
// on symbol under the resolution's table suffix. A zero cutoff means "up to
// now"; otherwise each view is truncated to bucket labels at or before the
// cutoff before scoring.
func (s *Screener) Build(ctx context.Context, resolutions []string, cutoff time.Time) (*models.MCombinedTable, error) {
	resolutions, err := validateResolutions(resolutions)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	suffixes := make([]string, 0, len(resolutions))
	for _, r := range resolutions {
		suffixes = append(suffixes, models.TableSuffix(r))
	}

	table := models.NewCombinedTable(suffixes)
	for i, resolution := range resolutions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		views, err := s.Cache.GetAll(resolution)
		if err != nil {
			return nil, err
		}
		for _, row := range s.buildRows(ctx, views, cutoff) {
			table.Set(suffixes[i], row)
		}
	}
	table.Finalize()

	s.Logger.Debug("Built table: %d symbols x %d resolutions in %.2fs",
		len(table.Symbols), len(resolutions), time.Since(started).Seconds())
	return table, nil
}

// buildRows scores every symbol's view on a bounded worker pool and returns
// the newest row per symbol in sorted symbol order. Symbols whose view is
// empty after truncation are left out of this resolution; the outer join
// still admits them wherever another resolution has data.
func (s *Screener) buildRows(ctx context.Context, views map[string]*models.MSeries, cutoff time.Time) []models.MIndicatorRow {
	symbols := make([]string, 0, len(views))
	for symbol := range views {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	workers := s.Config.Screener.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	var mu sync.Mutex
	rows := make(map[string]models.MIndicatorRow, len(symbols))

	for _, symbol := range symbols {
		view := views[symbol]
		wg.Add(1)
		go func(symbol string, view *models.MSeries) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			frame := analysis.BuildMarketCycle(view.CutAt(cutoff), s.params)
			row, ok := frame.LastRow()
			if !ok {
				return
			}
			mu.Lock()
			rows[symbol] = row
			mu.Unlock()
		}(symbol, view)
	}
	wg.Wait()

	out := make([]models.MIndicatorRow, 0, len(rows))
	for _, symbol := range symbols {
		if row, ok := rows[symbol]; ok {
			out = append(out, row)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Screen
// -----------------------------------------------------------------------------

// Screen keeps the symbols that pass every filter. Each filter reads the
// MarketCycle column and its two lags under the filter's suffix; a missing
// cell or a NaN score fails the filter. The filters form a pure conjunction,
// so their order never changes the result.
func (s *Screener) Screen(table *models.MCombinedTable, filters []models.MFilter) *models.MCombinedTable {
	keep := make([]string, 0, len(table.Symbols))
	for _, symbol := range table.Symbols {
		if passesAll(table, symbol, filters) {
			keep = append(keep, symbol)
		}
	}
	s.Logger.Debug("Screen kept %d of %d symbols through %d filters",
		len(keep), len(table.Symbols), len(filters))
	return table.Select(keep)
}

func passesAll(table *models.MCombinedTable, symbol string, filters []models.MFilter) bool {
	for _, f := range filters {
		if !passes(table, symbol, f) {
			return false
		}
	}
	return true
}

// passes evaluates one predicate. NaN comparisons are false in Go, so a
// warming-up score fails every predicate without special casing.
func passes(table *models.MCombinedTable, symbol string, f models.MFilter) bool {
	row, ok := table.Row(symbol, f.Suffix)
	if !ok {
		return false
	}
	mc := row.MarketCycle
	p := row.PrevMarketCycle
	p2 := row.Prev2MarketCycle

	switch f.Kind {
	case models.FilterBounceUp:
		return p2 >= p && p <= mc && p <= f.Level
	case models.FilterBounceDown:
		return p2 <= p && p >= mc && p >= f.Level
	case models.FilterTrendUp:
		return p <= mc && p <= f.Level
	case models.FilterTrendDown:
		return p >= mc && p >= f.Level
	case models.FilterMoreThan:
		return mc >= f.Level
	case models.FilterLessThan:
		return mc <= f.Level
	}
	return false
}

// -----------------------------------------------------------------------------
// Historical
// -----------------------------------------------------------------------------

// Historical builds one symbol's frame on the finest requested resolution
// as backbone and aligns every coarser resolution's MarketCycle column
// backward onto it: each backbone timestamp carries the newest coarse value
// at or before it, NaN before the first coarse label.
func (s *Screener) Historical(ctx context.Context, symbol string, resolutions []string, cutoff time.Time) (*models.MHistoricalFrame, error) {
	resolutions, err := validateResolutions(resolutions)
	if err != nil {
		return nil, err
	}
	backbone := models.FinestResolution(resolutions)

	series, err := s.Cache.Get(symbol, backbone)
	if err != nil {
		return nil, err
	}
	base := series.CutAt(cutoff)

	frame := &models.MHistoricalFrame{
		Symbol:     symbol,
		Backbone:   backbone,
		Timestamps: base.Timestamps(),
		Open:       base.Opens(),
		High:       base.Highs(),
		Low:        base.Lows(),
		Close:      base.Closes(),
		Volume:     base.Volumes(),
		Trades:     base.TradeCounts(),
		Scores:     make(map[string][]float64, len(resolutions)),
	}
	if base.Empty() {
		s.Logger.Warning("No %s data for %s; historical frame is empty", backbone, symbol)
		return frame, nil
	}

	suffix := models.HistoricalSuffix(backbone)
	frame.Scores[suffix] = analysis.BuildMarketCycle(base, s.params).Score
	frame.ScoreOrder = append(frame.ScoreOrder, suffix)

	for _, resolution := range resolutions {
		if resolution == backbone {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		view, err := s.Cache.Get(symbol, resolution)
		if err != nil {
			return nil, err
		}
		view = view.CutAt(cutoff)
		if view.Empty() {
			s.Logger.Debug("No %s data for %s; score column skipped", resolution, symbol)
			continue
		}
		coarse := analysis.BuildMarketCycle(view, s.params)
		suffix = models.HistoricalSuffix(resolution)
		frame.Scores[suffix] = alignBackward(frame.Timestamps, view.Timestamps(), coarse.Score)
		frame.ScoreOrder = append(frame.ScoreOrder, suffix)
	}
	return frame, nil
}

// alignBackward carries the newest coarse score at or before each backbone
// timestamp. Both timestamp slices come in ascending, so one cursor pass
// covers the whole frame.
func alignBackward(backbone, labels []time.Time, score []float64) []float64 {
	out := make([]float64, len(backbone))
	j := -1
	for i, ts := range backbone {
		for j+1 < len(labels) && !labels[j+1].After(ts) {
			j++
		}
		if j < 0 {
			out[i] = math.NaN()
		} else {
			out[i] = score[j]
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Timeseries
// -----------------------------------------------------------------------------

// GetTimeseries returns the daily and intraday sparkline columns for one
// symbol: the last lastN MarketCycle and close values of the 1d and 15min
// views, packed from index zero and zero-padded on the right, with NaN
// flattened to zero. An untracked symbol yields all-zero columns.
func (s *Screener) GetTimeseries(symbol string, lastN int) (*models.MTimeseries, error) {
	if lastN <= 0 {
		return nil, helpers.NewValidationError(fmt.Sprintf("lastN must be positive, got %d", lastN), nil)
	}

	daily, err := s.Cache.Get(symbol, models.Resolution1D)
	if err != nil {
		return nil, err
	}
	intraday, err := s.Cache.Get(symbol, models.Resolution15Min)
	if err != nil {
		return nil, err
	}

	out := &models.MTimeseries{Symbol: symbol}
	out.DailyScore, out.DailyClose = s.sparkline(daily, lastN)
	out.IntradayScore, out.IntradayClose = s.sparkline(intraday, lastN)
	return out, nil
}

// sparkline scores the full series, then packs the tails. Scoring before
// slicing keeps the indicator warm-up out of the returned window whenever
// the history is long enough.
func (s *Screener) sparkline(series *models.MSeries, n int) (scores, closes []float64) {
	scores = make([]float64, n)
	closes = make([]float64, n)
	if series.Empty() {
		return scores, closes
	}
	frame := analysis.BuildMarketCycle(series, s.params)
	packTail(scores, frame.Score)
	packTail(closes, series.Closes())
	return scores, closes
}

// packTail copies up to len(dst) trailing values of src into dst starting
// at index zero. NaN slots keep the zero fill.
func packTail(dst, src []float64) {
	if len(src) > len(dst) {
		src = src[len(src)-len(dst):]
	}
	for i, v := range src {
		if math.IsNaN(v) {
			continue
		}
		dst[i] = v
	}
}

package main

import (
	"context"
	"math"
	"time"

	"market-screener/src/logger"
	"market-screener/src/models"
)

// -----------------------------------------------------------------------------
// StubProvider synthesizes deterministic OHLCV bars so the full pipeline runs
// offline: no network, no API key. Prices follow a per-symbol sine walk and
// weekends are skipped. The provider never produces a bar past its fixed
// horizon, so a repeated refresh adds nothing.
// -----------------------------------------------------------------------------

type StubProvider struct {
	Logger  *logger.Logger
	Horizon time.Time
}

// -----------------------------------------------------------------------------

func NewStubProvider(log *logger.Logger) *StubProvider {
	return &StubProvider{
		Logger:  log,
		Horizon: time.Now().UTC().Truncate(time.Minute).Add(-time.Minute),
	}
}

// -----------------------------------------------------------------------------

func (p *StubProvider) Name() string {
	return "stub"
}

// -----------------------------------------------------------------------------

// FetchBars generates one bar per step over [from, min(to, horizon)].
func (p *StubProvider) FetchBars(_ context.Context, symbol string, from, to time.Time, granularity models.Granularity) ([]models.MBar, error) {
	step := time.Minute
	if granularity == models.GranularityDay {
		step = 24 * time.Hour
	}
	if to.After(p.Horizon) {
		to = p.Horizon
	}

	start := from.UTC().Truncate(step)
	if start.Before(from) {
		start = start.Add(step)
	}

	seed := symbolSeed(symbol)
	var bars []models.MBar
	for ts := start; !ts.After(to); ts = ts.Add(step) {
		if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		bars = append(bars, syntheticBar(ts, step, seed))
	}

	p.Logger.Debug("Stub fetch %s %s: %d bars", symbol, granularity, len(bars))
	return bars, nil
}

// -----------------------------------------------------------------------------

// symbolSeed spreads symbols across price levels and wave phases.
func symbolSeed(symbol string) float64 {
	sum := 0
	for _, r := range symbol {
		sum += int(r)
	}
	return float64(sum % 97)
}

// -----------------------------------------------------------------------------

func syntheticBar(ts time.Time, step time.Duration, seed float64) models.MBar {
	i := float64(ts.Unix() / int64(step/time.Second))
	price := 100 + seed + 12*math.Sin(i/9+seed) + 4*math.Sin(i/23)

	return models.MBar{
		Timestamp: ts,
		Open:      price - 0.4,
		High:      price + 1.1,
		Low:       price - 1.3,
		Close:     price,
		Volume:    10000 + 500*math.Abs(math.Sin(i/7)),
		Trades:    int64(40 + int(i)%17),
	}
}

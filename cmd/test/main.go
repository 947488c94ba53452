package main

import (
	"context"
	"flag"
	"os"
	"time"

	"market-screener/src/cache"
	"market-screener/src/logger"
	"market-screener/src/models"
	"market-screener/src/screener"
)

// Offline smoke run of the whole pipeline: stub bars in, snapshots to a
// scratch sqlite file, every screener operation exercised once, and a second
// refresh proving the delta logic is incremental.
func main() {
	// 1. Parse command line flags
	keep := flag.Bool("keep", false, "keep the scratch snapshot directory")
	flag.Parse()

	appLogger := logger.NewLogger(logger.LevelInfo, "screener-test")

	// 2. Offline configuration and scratch storage
	conf := testConfig()
	workDir, store, err := setupStorage(conf, appLogger)
	if err != nil {
		appLogger.Error("Storage setup failed: %v", err)
		os.Exit(1)
	}
	defer func() {
		store.Close()
		if *keep {
			appLogger.Info("Scratch directory kept at %s", workDir)
			return
		}
		os.RemoveAll(workDir)
	}()

	// 3. Wire the pipeline against the stub provider
	provider := NewStubProvider(appLogger.WithName("StubProvider"))
	dataCache := cache.NewMarketDataCache(conf, appLogger.WithName("MarketDataCache"), provider, store)
	if err := dataCache.Load(); err != nil {
		appLogger.Error("Snapshot load failed: %v", err)
		os.Exit(1)
	}
	scr := screener.NewScreener(conf, appLogger.WithName("Screener"), dataCache)

	ctx := context.Background()
	check := newChecker(appLogger)

	// 4. Initial refresh fills both bases from scratch
	reports, err := scr.RefreshData(ctx, conf.Screener.Resolutions)
	check.NoError("initial refresh", err)
	printReports(reports)
	for _, r := range reports {
		check.True("initial refresh added bars to "+r.Base, r.TotalAdded > 0)
		check.True("no failed symbols on "+r.Base, len(r.Failed) == 0)
	}

	// 5. Build the combined table across every configured resolution
	table, err := scr.Build(ctx, conf.Screener.Resolutions, time.Time{})
	check.NoError("build", err)
	printTable(table)
	check.True("table has one row per symbol", len(table.Symbols) == len(conf.Screener.Symbols))
	check.True("daily scores are warm", countWarm(table, "") == len(conf.Screener.Symbols))

	// 6. Screen against level and trend predicates
	everything := scr.Screen(table, []models.MFilter{
		{Kind: models.FilterLessThan, Suffix: "", Level: 100},
	})
	nothing := scr.Screen(table, []models.MFilter{
		{Kind: models.FilterMoreThan, Suffix: "", Level: 101},
	})
	check.True("lessThan 100 keeps every warm row", len(everything.Symbols) == countWarm(table, ""))
	check.True("moreThan 101 keeps nothing", len(nothing.Symbols) == 0)

	trending := scr.Screen(table, []models.MFilter{
		{Kind: models.FilterTrendUp, Suffix: "week", Level: 50},
		{Kind: models.FilterLessThan, Suffix: "", Level: 60},
	})
	printScreen("trendUp(week,50) AND lessThan(daily,60)", trending)
	check.True("combined screen is a subset", len(trending.Symbols) <= len(table.Symbols))

	// 7. Historical frame with a cutoff in the past
	cutoff := provider.Horizon.AddDate(0, 0, -30)
	frame, err := scr.Historical(ctx, "AAPL", []string{"1d", "1wk", "1mo"}, cutoff)
	check.NoError("historical", err)
	printFrame(frame)
	check.True("historical has rows", frame.Len() > 0)
	check.True("historical respects the cutoff", !frame.Timestamps[frame.Len()-1].After(cutoff))
	for _, name := range frame.ScoreOrder {
		check.True("score column "+name+" spans the backbone", len(frame.Scores[name]) == frame.Len())
	}

	// 8. Sparkline extraction
	series, err := scr.GetTimeseries("MSFT", 20)
	check.NoError("timeseries", err)
	printTimeseries(series)
	check.True("timeseries columns hold 20 points",
		len(series.DailyScore) == 20 && len(series.IntradayScore) == 20 &&
			len(series.DailyClose) == 20 && len(series.IntradayClose) == 20)

	// 9. A second refresh adds nothing: the stub horizon is fixed
	again, err := scr.RefreshData(ctx, conf.Screener.Resolutions)
	check.NoError("second refresh", err)
	for _, r := range again {
		check.True("second refresh is a no-op on "+r.Base, r.TotalAdded == 0)
	}

	// 10. A fresh cache hydrates from the snapshot alone
	reloaded := cache.NewMarketDataCache(conf, appLogger.WithName("MarketDataCache"), provider, store)
	check.NoError("snapshot reload", reloaded.Load())
	check.True("snapshot round-trips the fine base",
		reloaded.BarsCached(models.Resolution1Min) == dataCache.BarsCached(models.Resolution1Min))
	check.True("snapshot round-trips the coarse base",
		reloaded.BarsCached(models.Resolution1D) == dataCache.BarsCached(models.Resolution1D))

	check.Summary()
}

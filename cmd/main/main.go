package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market-screener/src/cache"
	"market-screener/src/config"
	datasource "market-screener/src/data_source"
	"market-screener/src/helpers"
	"market-screener/src/interfaces"
	"market-screener/src/logger"
	"market-screener/src/models"
	"market-screener/src/network"
	"market-screener/src/screener"
	"market-screener/src/server"
	"market-screener/src/storage"
	"market-screener/src/utils"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(logger.ParseLevel(cfg.LogLevel), cfg.Name)

	// 1. Snapshot store
	var store interfaces.ISnapshotStore

	switch cfg.Storage.DBType {
	case "postgres":
		store, err = storage.NewPostgresSnapshotStore(cfg.MConfig, appLogger.WithName("PostgresStore"))
	case "parquet":
		store, err = storage.NewParquetSnapshotStore(cfg.MConfig, appLogger.WithName("ParquetStore"))
	default:
		// Default to SQLite
		store, err = storage.NewSQLiteSnapshotStore(cfg.MConfig, appLogger.WithName("SQLiteStore"))
	}
	if err != nil {
		appLogger.Critical("Failed to init store: %v", err)
		os.Exit(1)
	}
	// A database backend may not be accepting connections yet at startup.
	if err := helpers.RetryWithBackoff(appLogger, "store initialization", 3, 2*time.Second, store.Initialize); err != nil {
		appLogger.Critical("Failed to initialize store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	// 2. Network and provider
	var networkManager interfaces.INetworkManager = network.NewAsyncNetworkManager(cfg.MConfig, appLogger.WithName("Network"))

	provider, err := datasource.NewProvider(cfg.MConfig, appLogger, networkManager)
	if err != nil {
		appLogger.Critical("Failed to init provider: %v", err)
		os.Exit(1)
	}

	// 3. Cache, screener, server, scheduler
	dataCache := cache.NewMarketDataCache(cfg.MConfig, appLogger.WithName("MarketDataCache"), provider, store)
	if err := dataCache.Load(); err != nil {
		appLogger.Warning("Snapshot load failed, starting cold: %v", err)
	}

	var scr interfaces.IScreener = screener.NewScreener(cfg.MConfig, appLogger.WithName("Screener"), dataCache)

	srv := server.NewAPIServer(cfg.MConfig, appLogger.WithName("APIServer"), scr)
	var exchanger interfaces.IDataExchanger = srv

	scheduler := utils.NewMarketScheduler(cfg.Screener.Symbols, cfg.Refresh.Calendars, appLogger.WithName("MarketScheduler"))

	// 4. Initial refresh and table build
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger.Info("Running initial refresh for %d symbols...", len(cfg.Screener.Symbols))
	if payload, err := runCycle(ctx, cfg.MConfig, scr, dataCache); err != nil {
		appLogger.Warning("Initial refresh failed: %v", err)
	} else {
		exchanger.UpdateLatest(payload)
		appLogger.Info("Initial table ready: %d symbols", len(payload.Table.Symbols))
	}

	// 5. Start server
	go func() {
		if err := exchanger.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 6. Refresh loop
	interval := time.Duration(cfg.Refresh.UpdateIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	runAndBroadcast := func() {
		payload, err := runCycle(ctx, cfg.MConfig, scr, dataCache)
		if err != nil {
			appLogger.Error("Refresh cycle failed: %v", err)
			return
		}
		exchanger.Broadcast(payload)
	}

	appLogger.Info("Starting refresh loop (every %s)...", interval)

	for {
		select {
		case <-ticker.C:
			if cfg.Refresh.MarketHoursOnly && !scheduler.AnyMarketOpen() {
				appLogger.Debug("All tracked markets closed; skipping cycle")
				continue
			}
			runAndBroadcast()

		case <-srv.RefreshRequests():
			// Manual refreshes bypass the market-hours gate.
			appLogger.Info("Manual refresh requested")
			runAndBroadcast()

		case <-quit:
			appLogger.Info("Shutting down...")
			cancel()
			exchanger.Stop()
			return
		}
	}
}

// -----------------------------------------------------------------------------

// runCycle refreshes the bases behind the configured resolutions and builds
// the combined table, bounded by one update interval.
func runCycle(ctx context.Context, cfg *models.MConfig, scr interfaces.IScreener, dataCache interfaces.IMarketDataCache) (*models.MTableBroadcast, error) {
	timeout := time.Duration(cfg.Refresh.UpdateIntervalSeconds) * time.Second
	cycleCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	refreshStart := time.Now()
	if _, err := scr.RefreshData(cycleCtx, cfg.Screener.Resolutions); err != nil {
		return nil, err
	}
	refreshSeconds := time.Since(refreshStart).Seconds()

	buildStart := time.Now()
	table, err := scr.Build(cycleCtx, cfg.Screener.Resolutions, time.Time{})
	if err != nil {
		return nil, err
	}
	buildSeconds := time.Since(buildStart).Seconds()

	metrics := models.MScreenerMetrics{
		RefreshSeconds:    refreshSeconds,
		BuildSeconds:      buildSeconds,
		SymbolsTracked:    len(cfg.Screener.Symbols),
		RowsBuilt:         len(table.Symbols),
		BarsCachedFine:    dataCache.BarsCached(models.Resolution1Min),
		BarsCachedCoarse:  dataCache.BarsCached(models.Resolution1D),
		LastRefreshFine:   msOrZero(dataCache.LastRefresh(models.Resolution1Min)),
		LastRefreshCoarse: msOrZero(dataCache.LastRefresh(models.Resolution1D)),
	}
	return &models.MTableBroadcast{Table: table, Metrics: metrics}, nil
}

func msOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

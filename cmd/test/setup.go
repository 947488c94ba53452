package main

import (
	"os"
	"path/filepath"

	"market-screener/src/interfaces"
	"market-screener/src/logger"
	"market-screener/src/models"
	"market-screener/src/storage"
)

// -----------------------------------------------------------------------------
// Offline wiring: an in-code configuration and a scratch sqlite snapshot, so
// the harness needs no config file and leaves nothing behind.
// -----------------------------------------------------------------------------

func testConfig() *models.MConfig {
	return &models.MConfig{
		Name:     "screener-test",
		Host:     "127.0.0.1",
		Port:     8090,
		LogLevel: "info",
		Storage: models.MStorageConfig{
			DBType: "sqlite",
		},
		Provider: models.MProviderConfig{
			Name:           "stub",
			IntradayDays:   10,
			DailyStartDate: "2022-01-03",
		},
		Screener: models.MScreenerConfig{
			Symbols:     []string{"AAPL", "AMZN", "META", "MSFT", "NVDA"},
			Resolutions: []string{"15min", "1h", "1d", "1wk", "1mo"},
			Workers:     4,
		},
		Refresh: models.MRefreshConfig{
			UpdateIntervalSeconds: 300,
			Calendars:             []string{"xnys"},
		},
	}
}

// -----------------------------------------------------------------------------

// setupStorage creates a scratch directory holding an initialized sqlite
// snapshot store. The caller removes the directory when done.
func setupStorage(conf *models.MConfig, log *logger.Logger) (string, interfaces.ISnapshotStore, error) {
	dir, err := os.MkdirTemp("", "screener-test-*")
	if err != nil {
		return "", nil, err
	}
	conf.Storage.DBPath = filepath.Join(dir, "snapshots.db")

	store, err := storage.NewSQLiteSnapshotStore(conf, log.WithName("SQLiteSnapshotStore"))
	if err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	if err := store.Initialize(); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	return dir, store, nil
}

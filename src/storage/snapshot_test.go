package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"market-screener/src/helpers"
	"market-screener/src/interfaces"
	"market-screener/src/logger"
	"market-screener/src/models"
)

func quietLogger() *logger.Logger {
	return logger.NewLogger(logger.LevelError, "storage-test")
}

var refreshedAt = time.Date(2024, 3, 8, 21, 0, 0, 0, time.UTC)

func snapshotFixture() map[string]*models.MSeries {
	aaa := models.NewSeries("AAA")
	aaa.Bars = []models.MBar{
		{Timestamp: time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC), Open: 10, High: 12, Low: 9.5, Close: 11, Volume: 1500, Trades: 42},
		{Timestamp: time.Date(2024, 3, 4, 14, 31, 0, 0, time.UTC), Open: 11, High: 11.5, Low: 10.5, Close: 11.25, Volume: 900, Trades: 17},
		{Timestamp: time.Date(2024, 3, 4, 14, 32, 0, 0, time.UTC), Open: 11.25, High: 13, Low: 11, Close: 12.75, Volume: 2100, Trades: 88},
	}
	bbb := models.NewSeries("BBB")
	bbb.Bars = []models.MBar{
		{Timestamp: time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC), Open: 200, High: 205, Low: 199, Close: 204, Volume: 51000, Trades: 310},
		{Timestamp: time.Date(2024, 3, 4, 14, 31, 0, 0, time.UTC), Open: 204, High: 204.5, Low: 202, Close: 203, Volume: 47000, Trades: 280},
	}
	return map[string]*models.MSeries{"AAA": aaa, "BBB": bbb}
}

func assertSeriesEqual(t *testing.T, got, want *models.MSeries) {
	t.Helper()
	if got == nil {
		t.Fatalf("missing series %s", want.Symbol)
	}
	if got.Len() != want.Len() {
		t.Fatalf("%s: got %d bars, want %d", want.Symbol, got.Len(), want.Len())
	}
	for i := range want.Bars {
		g, w := got.Bars[i], want.Bars[i]
		if !g.Timestamp.Equal(w.Timestamp) {
			t.Errorf("%s bar %d timestamp: got %v, want %v", want.Symbol, i, g.Timestamp, w.Timestamp)
		}
		if g.Open != w.Open || g.High != w.High || g.Low != w.Low ||
			g.Close != w.Close || g.Volume != w.Volume || g.Trades != w.Trades {
			t.Errorf("%s bar %d: got %+v, want %+v", want.Symbol, i, g, w)
		}
	}
}

// -----------------------------------------------------------------------------

// runSnapshotContract exercises the behavior every snapshot backend must
// share: empty reads, full round trips, wholesale replacement, independent
// bases and closed table names.
func runSnapshotContract(t *testing.T, store interfaces.ISnapshotStore) {
	t.Helper()

	// A fresh store answers with an empty snapshot, not an error.
	series, last, err := store.LoadSnapshot(models.Resolution1Min)
	if err != nil {
		t.Fatalf("loading empty snapshot: %v", err)
	}
	if len(series) != 0 || !last.IsZero() {
		t.Fatalf("fresh store: %d series, last refresh %v", len(series), last)
	}

	fixture := snapshotFixture()
	if err := store.SaveSnapshot(models.Resolution1Min, fixture, refreshedAt); err != nil {
		t.Fatalf("saving snapshot: %v", err)
	}

	series, last, err = store.LoadSnapshot(models.Resolution1Min)
	if err != nil {
		t.Fatalf("loading snapshot: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(series))
	}
	assertSeriesEqual(t, series["AAA"], fixture["AAA"])
	assertSeriesEqual(t, series["BBB"], fixture["BBB"])
	if !last.Equal(refreshedAt) {
		t.Errorf("last refresh: got %v, want %v", last, refreshedAt)
	}

	// The other base is untouched.
	series, last, err = store.LoadSnapshot(models.Resolution1D)
	if err != nil {
		t.Fatalf("loading daily snapshot: %v", err)
	}
	if len(series) != 0 || !last.IsZero() {
		t.Errorf("daily base leaked data: %d series, last %v", len(series), last)
	}

	// Re-saving replaces the previous snapshot wholesale.
	smaller := map[string]*models.MSeries{"AAA": {Symbol: "AAA", Bars: fixture["AAA"].Bars[:1]}}
	later := refreshedAt.Add(time.Hour)
	if err := store.SaveSnapshot(models.Resolution1Min, smaller, later); err != nil {
		t.Fatalf("re-saving snapshot: %v", err)
	}
	series, last, err = store.LoadSnapshot(models.Resolution1Min)
	if err != nil {
		t.Fatalf("loading replaced snapshot: %v", err)
	}
	if len(series) != 1 || series["AAA"].Len() != 1 {
		t.Errorf("replacement merged instead of replacing: %d symbols", len(series))
	}
	if !last.Equal(later) {
		t.Errorf("last refresh after re-save: got %v, want %v", last, later)
	}

	// Only base resolutions have snapshot tables.
	var storageErr *helpers.StorageError
	if err := store.SaveSnapshot("15min", nil, time.Time{}); !errors.As(err, &storageErr) {
		t.Errorf("saving unknown base: %v", err)
	}
	if _, _, err := store.LoadSnapshot("15min"); !errors.As(err, &storageErr) {
		t.Errorf("loading unknown base: %v", err)
	}
}

// -----------------------------------------------------------------------------

func TestSQLiteSnapshotStore(t *testing.T) {
	cfg := &models.MConfig{Storage: models.MStorageConfig{
		DBPath: filepath.Join(t.TempDir(), "snapshots.db"),
	}}
	store, err := NewSQLiteSnapshotStore(cfg, quietLogger())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	if err := store.Initialize(); err != nil {
		t.Fatalf("initializing store: %v", err)
	}
	defer store.Close()

	runSnapshotContract(t, store)
}

func TestSQLiteSnapshotSurvivesReopen(t *testing.T) {
	cfg := &models.MConfig{Storage: models.MStorageConfig{
		DBPath: filepath.Join(t.TempDir(), "snapshots.db"),
	}}

	first, err := NewSQLiteSnapshotStore(cfg, quietLogger())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	if err := first.Initialize(); err != nil {
		t.Fatalf("initializing store: %v", err)
	}
	fixture := snapshotFixture()
	if err := first.SaveSnapshot(models.Resolution1D, fixture, refreshedAt); err != nil {
		t.Fatalf("saving snapshot: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("closing store: %v", err)
	}

	second, err := NewSQLiteSnapshotStore(cfg, quietLogger())
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	if err := second.Initialize(); err != nil {
		t.Fatalf("initializing reopened store: %v", err)
	}
	defer second.Close()

	series, last, err := second.LoadSnapshot(models.Resolution1D)
	if err != nil {
		t.Fatalf("loading after reopen: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 symbols after reopen, got %d", len(series))
	}
	assertSeriesEqual(t, series["AAA"], fixture["AAA"])
	if !last.Equal(refreshedAt) {
		t.Errorf("last refresh after reopen: got %v, want %v", last, refreshedAt)
	}
}

// -----------------------------------------------------------------------------

func TestParquetSnapshotStore(t *testing.T) {
	cfg := &models.MConfig{Storage: models.MStorageConfig{
		SnapshotDir: t.TempDir(),
	}}
	store, err := NewParquetSnapshotStore(cfg, quietLogger())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	if err := store.Initialize(); err != nil {
		t.Fatalf("initializing store: %v", err)
	}
	defer store.Close()

	runSnapshotContract(t, store)
}

func TestParquetSnapshotFilesOnDisk(t *testing.T) {
	dir := t.TempDir()
	cfg := &models.MConfig{Storage: models.MStorageConfig{SnapshotDir: dir}}
	store, err := NewParquetSnapshotStore(cfg, quietLogger())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	if err := store.Initialize(); err != nil {
		t.Fatalf("initializing store: %v", err)
	}
	if err := store.SaveSnapshot(models.Resolution1Min, snapshotFixture(), refreshedAt); err != nil {
		t.Fatalf("saving snapshot: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "bars_1min.parquet")); err != nil {
		t.Errorf("snapshot file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "bars_1min.meta.json")); err != nil {
		t.Errorf("meta file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "bars_1min.parquet.tmp")); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}

	// A second store over the same directory picks the snapshot up.
	reopened, err := NewParquetSnapshotStore(cfg, quietLogger())
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	series, last, err := reopened.LoadSnapshot(models.Resolution1Min)
	if err != nil {
		t.Fatalf("loading after reopen: %v", err)
	}
	if len(series) != 2 || !last.Equal(refreshedAt) {
		t.Errorf("reopened store: %d series, last %v", len(series), last)
	}
}

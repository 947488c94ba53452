package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"market-screener/src/helpers"
	"market-screener/src/logger"
	"market-screener/src/models"
)

// -----------------------------------------------------------------------------

// snapshotRow is the flat on-disk projection of one bar.
type snapshotRow struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"t"`
	Open      float64 `parquet:"o"`
	High      float64 `parquet:"h"`
	Low       float64 `parquet:"l"`
	Close     float64 `parquet:"c"`
	Volume    float64 `parquet:"v"`
	Trades    int64   `parquet:"n"`
}

// snapshotMeta sits next to each parquet file and carries the refresh
// instant the snapshot was taken at.
type snapshotMeta struct {
	Base        string `json:"base"`
	LastRefresh int64  `json:"last_refresh"`
}

// -----------------------------------------------------------------------------

// ParquetSnapshotStore keeps one parquet file per base resolution under the
// snapshot directory, columnar and friendly to offline analysis tools.
type ParquetSnapshotStore struct {
	Config *models.MConfig
	Dir    string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewParquetSnapshotStore(cfg *models.MConfig, log *logger.Logger) (*ParquetSnapshotStore, error) {
	dir := cfg.Storage.SnapshotDir
	if dir == "" {
		dir = "snapshots"
	}
	return &ParquetSnapshotStore{
		Config: cfg,
		Dir:    dir,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *ParquetSnapshotStore) Initialize() error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return helpers.NewStorageError(fmt.Sprintf("creating snapshot directory %s", d.Dir), err)
	}
	return nil
}

func (d *ParquetSnapshotStore) barPath(table string) string {
	return filepath.Join(d.Dir, table+".parquet")
}

func (d *ParquetSnapshotStore) metaPath(table string) string {
	return filepath.Join(d.Dir, table+".meta.json")
}

// -----------------------------------------------------------------------------

func (d *ParquetSnapshotStore) SaveSnapshot(base string, series map[string]*models.MSeries, lastRefresh time.Time) error {
	table, err := barTable(base)
	if err != nil {
		return err
	}

	symbols := make([]string, 0, len(series))
	total := 0
	for symbol, s := range series {
		symbols = append(symbols, symbol)
		total += s.Len()
	}
	sort.Strings(symbols)

	rows := make([]snapshotRow, 0, total)
	for _, symbol := range symbols {
		for _, b := range series[symbol].Bars {
			rows = append(rows, snapshotRow{
				Symbol:    symbol,
				Timestamp: b.Timestamp.UnixMilli(),
				Open:      b.Open,
				High:      b.High,
				Low:       b.Low,
				Close:     b.Close,
				Volume:    b.Volume,
				Trades:    b.Trades,
			})
		}
	}

	// Write to a temp file and rename so a crash never leaves a half
	// snapshot behind the published name.
	path := d.barPath(table)
	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		return helpers.NewStorageError(fmt.Sprintf("writing %s", tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return helpers.NewStorageError(fmt.Sprintf("publishing %s", path), err)
	}

	meta, err := json.Marshal(snapshotMeta{Base: base, LastRefresh: lastRefresh.UnixMilli()})
	if err != nil {
		return helpers.NewStorageError("encoding snapshot meta", err)
	}
	if err := os.WriteFile(d.metaPath(table), meta, 0o644); err != nil {
		return helpers.NewStorageError("writing snapshot meta", err)
	}

	d.Logger.Debug("Saved %s snapshot: %d bars across %d symbols", base, len(rows), len(symbols))
	return nil
}

// -----------------------------------------------------------------------------

func (d *ParquetSnapshotStore) LoadSnapshot(base string) (map[string]*models.MSeries, time.Time, error) {
	table, err := barTable(base)
	if err != nil {
		return nil, time.Time{}, err
	}

	series := make(map[string]*models.MSeries)

	rows, err := parquet.ReadFile[snapshotRow](d.barPath(table))
	if os.IsNotExist(err) {
		return series, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, helpers.NewStorageError(fmt.Sprintf("reading %s", d.barPath(table)), err)
	}

	for _, r := range rows {
		s, ok := series[r.Symbol]
		if !ok {
			s = models.NewSeries(r.Symbol)
			series[r.Symbol] = s
		}
		s.Bars = append(s.Bars, models.MBar{
			Timestamp: time.UnixMilli(r.Timestamp).UTC(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
			Trades:    r.Trades,
		})
	}

	var lastRefresh time.Time
	raw, err := os.ReadFile(d.metaPath(table))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, time.Time{}, helpers.NewStorageError("reading snapshot meta", err)
	default:
		var meta snapshotMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, time.Time{}, helpers.NewStorageError("decoding snapshot meta", err)
		}
		lastRefresh = time.UnixMilli(meta.LastRefresh).UTC()
	}

	return series, lastRefresh, nil
}

// -----------------------------------------------------------------------------

func (d *ParquetSnapshotStore) Close() error {
	return nil
}

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"market-screener/src/helpers"
	"market-screener/src/logger"
	"market-screener/src/models"
)

// -----------------------------------------------------------------------------

// barTables maps a base resolution onto its snapshot table. Table names
// come from this closed map only, never from request input.
var barTables = map[string]string{
	models.Resolution1Min: "bars_1min",
	models.Resolution1D:   "bars_1d",
}

func barTable(base string) (string, error) {
	table, ok := barTables[base]
	if !ok {
		return "", helpers.NewStorageError(fmt.Sprintf("no snapshot table for base %q", base), nil)
	}
	return table, nil
}

// -----------------------------------------------------------------------------

type SQLiteSnapshotStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteSnapshotStore(cfg *models.MConfig, log *logger.Logger) (*SQLiteSnapshotStore, error) {
	return &SQLiteSnapshotStore{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteSnapshotStore) Initialize() error {
	db, err := sql.Open("sqlite", d.Config.Storage.DBPath)
	if err != nil {
		return helpers.NewStorageError("opening sqlite database", err)
	}
	if err := db.Ping(); err != nil {
		return helpers.NewStorageError("pinging sqlite database", err)
	}
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

// createTables builds the snapshot schema. Unlike a scratch table this data
// must survive restarts, so everything is IF NOT EXISTS.
func (d *SQLiteSnapshotStore) createTables() error {
	for _, table := range barTables {
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				symbol TEXT,
				timestamp INTEGER,
				open REAL,
				high REAL,
				low REAL,
				close REAL,
				volume REAL,
				trades INTEGER,
				PRIMARY KEY (symbol, timestamp)
			);
		`, table)
		if _, err := d.DB.Exec(query); err != nil {
			return helpers.NewStorageError(fmt.Sprintf("creating %s", table), err)
		}
	}

	query := `
		CREATE TABLE IF NOT EXISTS snapshot_meta (
			base TEXT PRIMARY KEY,
			last_refresh INTEGER
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewStorageError("creating snapshot_meta", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteSnapshotStore) SaveSnapshot(base string, series map[string]*models.MSeries, lastRefresh time.Time) error {
	table, err := barTable(base)
	if err != nil {
		return err
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewStorageError("beginning snapshot transaction", err)
	}
	defer tx.Rollback()

	// Wholesale replacement: the in-memory cache is the source of truth.
	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
		return helpers.NewStorageError(fmt.Sprintf("clearing %s", table), err)
	}

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO %s (symbol, timestamp, open, high, low, close, volume, trades)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, table))
	if err != nil {
		return helpers.NewStorageError("preparing snapshot insert", err)
	}
	defer stmt.Close()

	rows := 0
	for symbol, s := range series {
		for _, b := range s.Bars {
			_, err := stmt.Exec(symbol, b.Timestamp.UnixMilli(),
				b.Open, b.High, b.Low, b.Close, b.Volume, b.Trades)
			if err != nil {
				return helpers.NewStorageError(fmt.Sprintf("inserting %s bars", symbol), err)
			}
			rows++
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO snapshot_meta (base, last_refresh) VALUES (?, ?)
		ON CONFLICT (base) DO UPDATE SET last_refresh = excluded.last_refresh
	`, base, lastRefresh.UnixMilli()); err != nil {
		return helpers.NewStorageError("updating snapshot_meta", err)
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewStorageError("committing snapshot", err)
	}

	d.Logger.Debug("Saved %s snapshot: %d bars across %d symbols", base, rows, len(series))
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteSnapshotStore) LoadSnapshot(base string) (map[string]*models.MSeries, time.Time, error) {
	table, err := barTable(base)
	if err != nil {
		return nil, time.Time{}, err
	}

	rows, err := d.DB.Query(fmt.Sprintf(`
		SELECT symbol, timestamp, open, high, low, close, volume, trades
		FROM %s
		ORDER BY symbol, timestamp
	`, table))
	if err != nil {
		return nil, time.Time{}, helpers.NewStorageError(fmt.Sprintf("reading %s", table), err)
	}
	defer rows.Close()

	series := make(map[string]*models.MSeries)
	for rows.Next() {
		var symbol string
		var ts int64
		var b models.MBar
		if err := rows.Scan(&symbol, &ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Trades); err != nil {
			return nil, time.Time{}, helpers.NewStorageError(fmt.Sprintf("scanning %s row", table), err)
		}
		b.Timestamp = time.UnixMilli(ts).UTC()

		s, ok := series[symbol]
		if !ok {
			s = models.NewSeries(symbol)
			series[symbol] = s
		}
		s.Bars = append(s.Bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, helpers.NewStorageError(fmt.Sprintf("iterating %s", table), err)
	}

	var lastRefresh time.Time
	var ms int64
	err = d.DB.QueryRow("SELECT last_refresh FROM snapshot_meta WHERE base = ?", base).Scan(&ms)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// First run: no snapshot yet.
	case err != nil:
		return nil, time.Time{}, helpers.NewStorageError("reading snapshot_meta", err)
	default:
		lastRefresh = time.UnixMilli(ms).UTC()
	}

	return series, lastRefresh, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteSnapshotStore) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"market-screener/src/helpers"
	"market-screener/src/logger"
	"market-screener/src/models"
)

// -----------------------------------------------------------------------------

type PostgresSnapshotStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresSnapshotStore(cfg *models.MConfig, log *logger.Logger) (*PostgresSnapshotStore, error) {
	// Use the executable name as schema so several instances can share one
	// database without stepping on each other.
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresSnapshotStore{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresSnapshotStore) Initialize() error {
	db, err := sql.Open("postgres", d.Config.Storage.DBConnectionString)
	if err != nil {
		return helpers.NewStorageError("opening postgres database", err)
	}
	if err := db.Ping(); err != nil {
		return helpers.NewStorageError("pinging postgres database", err)
	}
	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return helpers.NewStorageError(fmt.Sprintf("creating schema %s", d.Schema), err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresSnapshotStore initialized (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresSnapshotStore) createTables() error {
	for _, table := range barTables {
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS "%s"."%s" (
				symbol TEXT,
				timestamp BIGINT,
				open DOUBLE PRECISION,
				high DOUBLE PRECISION,
				low DOUBLE PRECISION,
				close DOUBLE PRECISION,
				volume DOUBLE PRECISION,
				trades BIGINT,
				PRIMARY KEY (symbol, timestamp)
			);
		`, d.Schema, table)
		if _, err := d.DB.Exec(query); err != nil {
			return helpers.NewStorageError(fmt.Sprintf("creating %s", table), err)
		}
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."snapshot_meta" (
			base TEXT PRIMARY KEY,
			last_refresh BIGINT
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewStorageError("creating snapshot_meta", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresSnapshotStore) SaveSnapshot(base string, series map[string]*models.MSeries, lastRefresh time.Time) error {
	table, err := barTable(base)
	if err != nil {
		return err
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewStorageError("beginning snapshot transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM "%s"."%s"`, d.Schema, table)); err != nil {
		return helpers.NewStorageError(fmt.Sprintf("clearing %s", table), err)
	}

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO "%s"."%s" (symbol, timestamp, open, high, low, close, volume, trades)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, d.Schema, table))
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

	if _, err := tx.Exec(fmt.Sprintf(`
		INSERT INTO "%s"."snapshot_meta" (base, last_refresh) VALUES ($1, $2)
		ON CONFLICT (base) DO UPDATE SET last_refresh = EXCLUDED.last_refresh
	`, d.Schema), base, lastRefresh.UnixMilli()); err != nil {
		return helpers.NewStorageError("updating snapshot_meta", err)
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewStorageError("committing snapshot", err)
	}

	d.Logger.Debug("Saved %s snapshot: %d bars across %d symbols", base, rows, len(series))
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresSnapshotStore) LoadSnapshot(base string) (map[string]*models.MSeries, time.Time, error) {
	table, err := barTable(base)
	if err != nil {
		return nil, time.Time{}, err
	}

	rows, err := d.DB.Query(fmt.Sprintf(`
		SELECT symbol, timestamp, open, high, low, close, volume, trades
		FROM "%s"."%s"
		ORDER BY symbol, timestamp
	`, d.Schema, table))
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
	err = d.DB.QueryRow(fmt.Sprintf(`
		SELECT last_refresh FROM "%s"."snapshot_meta" WHERE base = $1
	`, d.Schema), base).Scan(&ms)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, time.Time{}, helpers.NewStorageError("reading snapshot_meta", err)
	default:
		lastRefresh = time.UnixMilli(ms).UTC()
	}

	return series, lastRefresh, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresSnapshotStore) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

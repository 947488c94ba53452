package interfaces

import (
	"market-screener/src/models"
	"time"
)

// -----------------------------------------------------------------------------
// ISnapshotStore defines the contract for cache snapshot persistence.
// One snapshot artifact exists per base resolution; it holds the full bar
// series of every tracked symbol plus the last refresh instant, and is
// replaced wholesale on each successful refresh.
// -----------------------------------------------------------------------------

type ISnapshotStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the backing schema or directory.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveSnapshot replaces the snapshot of one base resolution.
	SaveSnapshot(base string, series map[string]*models.MSeries, lastRefresh time.Time) error

	// -----------------------------------------------------------------------------

	// LoadSnapshot returns the stored series and last refresh instant for a
	// base resolution. A missing snapshot yields an empty map and zero time,
	// not an error.
	LoadSnapshot(base string) (map[string]*models.MSeries, time.Time, error)

	// -----------------------------------------------------------------------------

	// Close releases the underlying handles.
	Close() error
}

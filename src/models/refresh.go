package models

import "time"

// MRefreshReport summarizes one incremental refresh of a base resolution.
// LastRefresh is the authoritative refresh instant: it is persisted with the
// snapshot and reloaded at startup instead of living in a mutable settings
// file.
type MRefreshReport struct {
	Base            string         `json:"base"`
	BarsAdded       map[string]int `json:"bars_added"`
	TotalAdded      int            `json:"total_added"`
	Failed          []string       `json:"failed,omitempty"`
	LastRefresh     time.Time      `json:"last_refresh"`
	DurationSeconds float64        `json:"duration_seconds"`
}

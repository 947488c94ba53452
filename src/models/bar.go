package models

import (
	"sort"
	"time"
)

// Granularity is the provider-side step of a base bar series.
type Granularity string

const (
	GranularityMinute Granularity = "minute"
	GranularityDay    Granularity = "day"
)

// -----------------------------------------------------------------------------

// MBar represents a single OHLCV bar. Timestamps are UTC instants.
type MBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Trades    int64     `json:"trades"`
}

// -----------------------------------------------------------------------------

// MSeries holds the bar history of one symbol at one resolution.
// Bars are kept in strictly increasing timestamp order; gaps (nights,
// weekends, halts) are legal.
type MSeries struct {
	Symbol string `json:"symbol"`
	Bars   []MBar `json:"bars"`
}

func NewSeries(symbol string) *MSeries {
	return &MSeries{Symbol: symbol}
}

func (s *MSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

func (s *MSeries) Empty() bool {
	return s.Len() == 0
}

// LastTimestamp returns the newest bar timestamp, false on an empty series.
func (s *MSeries) LastTimestamp() (time.Time, bool) {
	if s.Empty() {
		return time.Time{}, false
	}
	return s.Bars[len(s.Bars)-1].Timestamp, true
}

// -----------------------------------------------------------------------------

// Append adds bars to the tail, dropping anything not strictly newer than
// the current last timestamp. Existing bars are never rewritten.
func (s *MSeries) Append(bars []MBar) int {
	added := 0
	for _, b := range bars {
		if last, ok := s.LastTimestamp(); ok && !b.Timestamp.After(last) {
			continue
		}
		s.Bars = append(s.Bars, b)
		added++
	}
	return added
}

// CutAt returns the series restricted to bars at or before cutoff.
// A zero cutoff means no truncation. The returned series shares the
// underlying bar storage; callers must treat it as read-only.
func (s *MSeries) CutAt(cutoff time.Time) *MSeries {
	if s == nil {
		return nil
	}
	if cutoff.IsZero() {
		return &MSeries{Symbol: s.Symbol, Bars: s.Bars}
	}
	n := sort.Search(len(s.Bars), func(i int) bool {
		return s.Bars[i].Timestamp.After(cutoff)
	})
	return &MSeries{Symbol: s.Symbol, Bars: s.Bars[:n]}
}

// Tail returns the last n bars (all of them when n exceeds the length).
func (s *MSeries) Tail(n int) *MSeries {
	if s == nil {
		return nil
	}
	if n >= len(s.Bars) {
		return &MSeries{Symbol: s.Symbol, Bars: s.Bars}
	}
	return &MSeries{Symbol: s.Symbol, Bars: s.Bars[len(s.Bars)-n:]}
}

// Clone returns a deep copy safe to mutate.
func (s *MSeries) Clone() *MSeries {
	if s == nil {
		return nil
	}
	out := &MSeries{Symbol: s.Symbol, Bars: make([]MBar, len(s.Bars))}
	copy(out.Bars, s.Bars)
	return out
}

// -----------------------------------------------------------------------------
// Column extraction for the indicator engine.
// -----------------------------------------------------------------------------

func (s *MSeries) Opens() []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = s.Bars[i].Open
	}
	return out
}

func (s *MSeries) Highs() []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = s.Bars[i].High
	}
	return out
}

func (s *MSeries) Lows() []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = s.Bars[i].Low
	}
	return out
}

func (s *MSeries) Closes() []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = s.Bars[i].Close
	}
	return out
}

func (s *MSeries) Volumes() []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = s.Bars[i].Volume
	}
	return out
}

func (s *MSeries) TradeCounts() []int64 {
	out := make([]int64, s.Len())
	for i := range out {
		out[i] = s.Bars[i].Trades
	}
	return out
}

func (s *MSeries) Timestamps() []time.Time {
	out := make([]time.Time, s.Len())
	for i := range out {
		out[i] = s.Bars[i].Timestamp
	}
	return out
}

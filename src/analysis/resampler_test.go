package analysis

import (
	"errors"
	"testing"
	"time"

	"market-screener/src/helpers"
	"market-screener/src/models"
)

func bar(ts time.Time, o, h, l, c, v float64, n int64) models.MBar {
	return models.MBar{Timestamp: ts, Open: o, High: h, Low: l, Close: c, Volume: v, Trades: n}
}

func minuteSeries(symbol string, start time.Time, n int) *models.MSeries {
	s := models.NewSeries(symbol)
	for i := 0; i < n; i++ {
		f := float64(i)
		s.Bars = append(s.Bars, bar(start.Add(time.Duration(i)*time.Minute),
			f, f+0.5, f-0.5, f+0.25, 10, 2))
	}
	return s
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// -----------------------------------------------------------------------------

func TestResampleIdentity(t *testing.T) {
	start := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	s := minuteSeries("AAPL", start, 5)

	got, err := Resample(s, models.Resolution1Min)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	if got.Len() != 5 {
		t.Fatalf("expected 5 bars, got %d", got.Len())
	}
	for i, b := range got.Bars {
		if !b.Timestamp.Equal(s.Bars[i].Timestamp) {
			t.Errorf("bar %d: timestamp changed to %v", i, b.Timestamp)
		}
	}
}

func TestResampleFiveMinuteBuckets(t *testing.T) {
	start := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	s := minuteSeries("AAPL", start, 15)

	got, err := Resample(s, models.Resolution5Min)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("expected 3 buckets, got %d", got.Len())
	}

	first := got.Bars[0]
	if !first.Timestamp.Equal(start) {
		t.Errorf("first label: expected %v, got %v", start, first.Timestamp)
	}
	if first.Open != 0 || first.Close != 4.25 {
		t.Errorf("first bucket open/close: got %.2f/%.2f, expected 0.00/4.25", first.Open, first.Close)
	}
	if first.High != 4.5 || first.Low != -0.5 {
		t.Errorf("first bucket high/low: got %.2f/%.2f, expected 4.50/-0.50", first.High, first.Low)
	}
	if first.Volume != 50 || first.Trades != 10 {
		t.Errorf("first bucket volume/trades: got %.0f/%d, expected 50/10", first.Volume, first.Trades)
	}

	second := got.Bars[1]
	if !second.Timestamp.Equal(start.Add(5 * time.Minute)) {
		t.Errorf("second label: got %v", second.Timestamp)
	}
	if second.Open != 5 || second.Close != 9.25 {
		t.Errorf("second bucket open/close: got %.2f/%.2f", second.Open, second.Close)
	}
}

func TestResampleDropsEmptyBuckets(t *testing.T) {
	s := models.NewSeries("AAPL")
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	s.Bars = append(s.Bars,
		bar(base, 1, 1, 1, 1, 1, 1),
		bar(base.Add(time.Minute), 2, 2, 2, 2, 1, 1),
		bar(base.Add(time.Hour), 3, 3, 3, 3, 1, 1),
	)

	got, err := Resample(s, models.Resolution15Min)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("expected 2 buckets with the gap dropped, got %d", got.Len())
	}
	if !got.Bars[0].Timestamp.Equal(base) {
		t.Errorf("first label: got %v", got.Bars[0].Timestamp)
	}
	if !got.Bars[1].Timestamp.Equal(base.Add(time.Hour)) {
		t.Errorf("second label: got %v", got.Bars[1].Timestamp)
	}
}

func TestResampleWeekEndsOnFriday(t *testing.T) {
	s := models.NewSeries("AAPL")
	// Mon 2024-01-08 .. Fri 2024-01-12, then Sat 01-13 and Mon 01-15.
	for d := 8; d <= 13; d++ {
		f := float64(d)
		s.Bars = append(s.Bars, bar(day(2024, 1, d), f, f, f, f, 1, 1))
	}
	s.Bars = append(s.Bars, bar(day(2024, 1, 15), 15, 15, 15, 15, 1, 1))

	got, err := Resample(s, models.Resolution1Wk)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("expected 2 weekly buckets, got %d", got.Len())
	}

	if !got.Bars[0].Timestamp.Equal(day(2024, 1, 12)) {
		t.Errorf("first week label: expected Fri 2024-01-12, got %v", got.Bars[0].Timestamp)
	}
	if got.Bars[0].Open != 8 || got.Bars[0].Close != 12 {
		t.Errorf("first week open/close: got %.0f/%.0f", got.Bars[0].Open, got.Bars[0].Close)
	}

	// The Saturday bar belongs to the week ending the following Friday.
	if !got.Bars[1].Timestamp.Equal(day(2024, 1, 19)) {
		t.Errorf("second week label: expected Fri 2024-01-19, got %v", got.Bars[1].Timestamp)
	}
	if got.Bars[1].Open != 13 || got.Bars[1].Close != 15 {
		t.Errorf("second week open/close: got %.0f/%.0f", got.Bars[1].Open, got.Bars[1].Close)
	}
}

func TestResampleMonthEndLabels(t *testing.T) {
	s := models.NewSeries("AAPL")
	s.Bars = append(s.Bars,
		bar(day(2024, 1, 30), 1, 1, 1, 1, 1, 1),
		bar(day(2024, 1, 31), 2, 2, 2, 2, 1, 1),
		bar(day(2024, 2, 1), 3, 3, 3, 3, 1, 1),
	)

	got, err := Resample(s, models.Resolution1Mo)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("expected 2 monthly buckets, got %d", got.Len())
	}
	if !got.Bars[0].Timestamp.Equal(day(2024, 1, 31)) {
		t.Errorf("January label: got %v", got.Bars[0].Timestamp)
	}
	// 2024 is a leap year.
	if !got.Bars[1].Timestamp.Equal(day(2024, 2, 29)) {
		t.Errorf("February label: got %v", got.Bars[1].Timestamp)
	}
}

func TestResampleUnsupportedResolution(t *testing.T) {
	s := minuteSeries("AAPL", time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC), 3)
	_, err := Resample(s, "7min")
	if err == nil {
		t.Fatal("expected an error for an unsupported resolution")
	}
	var confErr *helpers.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Errorf("expected a ConfigurationError, got %T", err)
	}
}

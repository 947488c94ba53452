package analysis

import (
	"fmt"
	"time"

	"market-screener/src/helpers"
	"market-screener/src/models"
)

// -----------------------------------------------------------------------------

// Resample converts a base series into calendar buckets of the requested
// resolution. Identity resolutions (1min, 1d) return the base unchanged.
// Per-bucket aggregation: open = first, high = max, low = min, close = last,
// volume and trades = sums. Buckets with no input bars are dropped, never
// zero-filled, so output labels are strictly ascending.
func Resample(s *models.MSeries, resolution string) (*models.MSeries, error) {
	switch resolution {
	case models.Resolution1Min, models.Resolution1D:
		return &models.MSeries{Symbol: s.Symbol, Bars: s.Bars}, nil
	case models.Resolution5Min:
		return resampleByLabel(s, fixedLabel(5*time.Minute)), nil
	case models.Resolution15Min:
		return resampleByLabel(s, fixedLabel(15*time.Minute)), nil
	case models.Resolution30Min:
		return resampleByLabel(s, fixedLabel(30*time.Minute)), nil
	case models.Resolution1H:
		return resampleByLabel(s, fixedLabel(time.Hour)), nil
	case models.Resolution1Wk:
		return resampleByLabel(s, weekEndFriday), nil
	case models.Resolution1Mo:
		return resampleByLabel(s, monthEnd), nil
	default:
		return nil, helpers.NewConfigurationError(fmt.Sprintf("unsupported resolution %q", resolution), nil)
	}
}

// -----------------------------------------------------------------------------

// fixedLabel buckets by fixed duration aligned to UTC midnight; the label
// is the bucket start. 5/15/30/60 minutes all divide 24h, so truncating
// against the Unix epoch lands on midnight-aligned boundaries.
func fixedLabel(width time.Duration) func(time.Time) time.Time {
	return func(ts time.Time) time.Time {
		return ts.UTC().Truncate(width)
	}
}

// weekEndFriday labels a bar with the Friday its week ends on, midnight
// UTC. Weeks run Saturday through Friday, so weekend bars roll into the
// next Friday's bucket.
func weekEndFriday(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Friday) - int(day.Weekday()) + 7) % 7
	return day.AddDate(0, 0, offset)
}

// monthEnd labels a bar with the last calendar day of its month, midnight
// UTC. Day zero of the next month normalizes to exactly that.
func monthEnd(ts time.Time) time.Time {
	y, m, _ := ts.UTC().Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
}

// -----------------------------------------------------------------------------

// resampleByLabel groups consecutive bars sharing a bucket label. Input
// bars are ascending, and every label function is monotone in time, so a
// single pass suffices.
func resampleByLabel(s *models.MSeries, label func(time.Time) time.Time) *models.MSeries {
	out := models.NewSeries(s.Symbol)
	if s.Empty() {
		return out
	}

	var bucket models.MBar
	var open bool
	for _, b := range s.Bars {
		l := label(b.Timestamp)
		if !open || !l.Equal(bucket.Timestamp) {
			if open {
				out.Bars = append(out.Bars, bucket)
			}
			bucket = models.MBar{
				Timestamp: l,
				Open:      b.Open,
				High:      b.High,
				Low:       b.Low,
				Close:     b.Close,
				Volume:    b.Volume,
				Trades:    b.Trades,
			}
			open = true
			continue
		}
		if b.High > bucket.High {
			bucket.High = b.High
		}
		if b.Low < bucket.Low {
			bucket.Low = b.Low
		}
		bucket.Close = b.Close
		bucket.Volume += b.Volume
		bucket.Trades += b.Trades
	}
	out.Bars = append(out.Bars, bucket)
	return out
}

package models

// Supported resolution names. 1min and 1d are the two base resolutions;
// every other resolution is resampled from its base on demand.
const (
	Resolution1Min  = "1min"
	Resolution5Min  = "5min"
	Resolution15Min = "15min"
	Resolution30Min = "30min"
	Resolution1H    = "1h"
	Resolution1D    = "1d"
	Resolution1Wk   = "1wk"
	Resolution1Mo   = "1mo"
)

// ResolutionMinutes orders the resolutions by approximate bucket width.
var ResolutionMinutes = map[string]int{
	Resolution1Min:  1,
	Resolution5Min:  5,
	Resolution15Min: 15,
	Resolution30Min: 30,
	Resolution1H:    60,
	Resolution1D:    1440,
	Resolution1Wk:   10080,
	Resolution1Mo:   43200,
}

// -----------------------------------------------------------------------------

func IsSupportedResolution(resolution string) bool {
	_, ok := ResolutionMinutes[resolution]
	return ok
}

// IsIntraday reports whether the resolution is served from the 1-minute base.
func IsIntraday(resolution string) bool {
	switch resolution {
	case Resolution1Min, Resolution5Min, Resolution15Min, Resolution30Min, Resolution1H:
		return true
	}
	return false
}

// NeedsCoarseRefresh reports whether the resolution triggers a refresh of
// the 1-day base. 1h belongs to both families: it is resampled from minutes
// but also marks the intraday boundary.
func NeedsCoarseRefresh(resolution string) bool {
	switch resolution {
	case Resolution1H, Resolution1D, Resolution1Wk, Resolution1Mo:
		return true
	}
	return false
}

// BaseOf returns the base resolution a view is resampled from.
func BaseOf(resolution string) (string, bool) {
	if IsIntraday(resolution) {
		return Resolution1Min, true
	}
	if IsSupportedResolution(resolution) {
		return Resolution1D, true
	}
	return "", false
}

// -----------------------------------------------------------------------------

// TableSuffix names the column groups of the combined table. The daily
// resolution stays unsuffixed, weekly and monthly get friendly names,
// everything else uses the resolution name itself.
func TableSuffix(resolution string) string {
	switch resolution {
	case Resolution1D:
		return ""
	case Resolution1Wk:
		return "week"
	case Resolution1Mo:
		return "month"
	default:
		return resolution
	}
}

// HistoricalSuffix names MarketCycle columns in historical frames. Unlike
// the combined table the daily resolution keeps its own name here.
func HistoricalSuffix(resolution string) string {
	switch resolution {
	case Resolution1Wk:
		return "week"
	case Resolution1Mo:
		return "month"
	default:
		return resolution
	}
}

// FinestResolution picks the backbone for historical alignment. Unknown
// names are ignored; an empty result means nothing was usable.
func FinestResolution(resolutions []string) string {
	finest := ""
	best := 0
	for _, r := range resolutions {
		m, ok := ResolutionMinutes[r]
		if !ok {
			continue
		}
		if finest == "" || m < best {
			best = m
			finest = r
		}
	}
	return finest
}

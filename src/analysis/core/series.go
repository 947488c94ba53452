package core

import "math"

// Series primitives shared by the indicator functions. NaN is the undefined
// value throughout: a rolling window only produces a value when it is full
// and contains no NaN, mirroring how the score columns warm up.

// -----------------------------------------------------------------------------

// Diff returns element-wise first differences, NaN in the first slot.
func Diff(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(out) == 0 {
		return out
	}
	out[0] = math.NaN()
	for i := 1; i < len(values); i++ {
		out[i] = values[i] - values[i-1]
	}
	return out
}

// -----------------------------------------------------------------------------

// Shift lags the series by n slots, NaN-filled at the head.
func Shift(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if i < n {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i-n]
	}
	return out
}

// -----------------------------------------------------------------------------

func hasNaN(window []float64) bool {
	for _, v := range window {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// rolling applies agg to every full window of width period.
func rolling(values []float64, period int, agg func(window []float64) float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i+1 < period {
			out[i] = math.NaN()
			continue
		}
		window := values[i+1-period : i+1]
		if hasNaN(window) {
			out[i] = math.NaN()
			continue
		}
		out[i] = agg(window)
	}
	return out
}

// -----------------------------------------------------------------------------

func RollingMin(values []float64, period int) []float64 {
	return rolling(values, period, func(window []float64) float64 {
		m := window[0]
		for _, v := range window[1:] {
			if v < m {
				m = v
			}
		}
		return m
	})
}

// -----------------------------------------------------------------------------

func RollingMax(values []float64, period int) []float64 {
	return rolling(values, period, func(window []float64) float64 {
		m := window[0]
		for _, v := range window[1:] {
			if v > m {
				m = v
			}
		}
		return m
	})
}

// -----------------------------------------------------------------------------

func RollingMean(values []float64, period int) []float64 {
	return rolling(values, period, func(window []float64) float64 {
		sum := 0.0
		for _, v := range window {
			sum += v
		}
		return sum / float64(len(window))
	})
}

// -----------------------------------------------------------------------------

// EWMSpan is an exponentially weighted mean with span semantics:
// alpha = 2/(span+1) over adjusted weights, so
//
//	y_t = (x_t + (1-a)*x_{t-1} + (1-a)^2*x_{t-2} + ...) /
//	      (1   + (1-a)         + (1-a)^2         + ...)
//
// Leading NaNs stay NaN. Once a value has been observed the mean is always
// defined; a NaN input afterwards decays the accumulated weights and keeps
// the previous level.
func EWMSpan(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	alpha := 2.0 / (float64(span) + 1.0)
	decay := 1.0 - alpha

	num, den := 0.0, 0.0
	seen := false
	for i, v := range values {
		if math.IsNaN(v) {
			if !seen {
				out[i] = math.NaN()
				continue
			}
			num *= decay
			den *= decay
			out[i] = num / den
			continue
		}
		num = num*decay + v
		den = den*decay + 1.0
		seen = true
		out[i] = num / den
	}
	return out
}

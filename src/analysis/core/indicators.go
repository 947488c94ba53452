package core

import "math"

// -----------------------------------------------------------------------------

// Stochastic positions each value inside the rolling min/max channel of
// width period, scaled to 0-100. A zero-range window divides 0 by 0 and
// yields NaN.
func Stochastic(values []float64, period int) []float64 {
	lo := RollingMin(values, period)
	hi := RollingMax(values, period)
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = 100.0 * ((v - lo[i]) / (hi[i] - lo[i]))
	}
	return out
}

// -----------------------------------------------------------------------------

// RSI smooths gains and losses with the exponential span mean
// (alpha = 2/(period+1), adjusted weights). This is deliberately not the
// Wilder variant; the two disagree and downstream scores depend on this
// one. IEEE division gives the boundary behavior directly: zero average
// loss with positive gains saturates to 100, an all-flat window is 0/0
// and stays NaN.
func RSI(values []float64, period int) []float64 {
	delta := Diff(values)
	up := make([]float64, len(delta))
	down := make([]float64, len(delta))
	for i, d := range delta {
		switch {
		case math.IsNaN(d):
			up[i], down[i] = math.NaN(), math.NaN()
		case d > 0:
			up[i], down[i] = d, 0
		default:
			up[i], down[i] = 0, -d
		}
	}

	avgGain := EWMSpan(up, period)
	avgLoss := EWMSpan(down, period)

	out := make([]float64, len(values))
	for i := range out {
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100.0 - 100.0/(1.0+rs)
	}
	return out
}

// -----------------------------------------------------------------------------

// StochasticRSI runs Stochastic over the RSI series and smooths it twice:
// K is the rolling mean of width kWindow, D the rolling mean of K of width
// dWindow.
func StochasticRSI(values []float64, kWindow, dWindow, rsiPeriod, stochPeriod int) (k, d []float64) {
	rsi := RSI(values, rsiPeriod)
	stoch := Stochastic(rsi, stochPeriod)
	k = RollingMean(stoch, kWindow)
	d = RollingMean(k, dWindow)
	return k, d
}

// -----------------------------------------------------------------------------

// DonchianChannelOscillator positions each value inside the rolling
// min/max channel of width period, with a smoothed companion series.
func DonchianChannelOscillator(values []float64, period, smooth int) (dco, smoothed []float64) {
	upper := RollingMax(values, period)
	lower := RollingMin(values, period)
	dco = make([]float64, len(values))
	for i, v := range values {
		dco[i] = ((v - lower[i]) / (upper[i] - lower[i])) * 100.0
	}
	smoothed = RollingMean(dco, smooth)
	return dco, smoothed
}

// -----------------------------------------------------------------------------

// MarketCycleParams bundles the composite score windows and weights.
type MarketCycleParams struct {
	DonchianPeriod int
	DonchianSmooth int
	RSIPeriod      int
	RSISmooth      int
	SRSIPeriod     int
	SRSISmooth     int
	SRSIK          int
	SRSID          int
	WeightRSI      float64
	WeightSRSI     float64
	WeightDCO      float64
}

func DefaultMarketCycleParams() MarketCycleParams {
	return MarketCycleParams{
		DonchianPeriod: 14,
		DonchianSmooth: 3,
		RSIPeriod:      14,
		RSISmooth:      3,
		SRSIPeriod:     20,
		SRSISmooth:     3,
		SRSIK:          5,
		SRSID:          5,
		WeightRSI:      0.5,
		WeightSRSI:     1,
		WeightDCO:      1,
	}
}

// -----------------------------------------------------------------------------

// MarketCycle blends the Donchian oscillator, the RSI and the stochastic
// RSI into one 0-100 score:
//
//	[(DCO+DCOs)*wDco + (RSI+RSIs)*wRsi + (K+D)*wSrsi] / [2*(wDco+wRsi+wSrsi)]
//
// Any undefined term makes the score NaN for that slot. Each component
// takes its own price series; the screener feeds closes to all three.
func MarketCycle(donchianPrice, rsiPrice, srsiPrice []float64, p MarketCycleParams) []float64 {
	dco, dcoSmooth := DonchianChannelOscillator(donchianPrice, p.DonchianPeriod, p.DonchianSmooth)
	rsi := RSI(rsiPrice, p.RSIPeriod)
	rsiSmooth := RollingMean(rsi, p.RSISmooth)
	k, d := StochasticRSI(srsiPrice, p.SRSIK, p.SRSID, p.SRSIPeriod, p.SRSISmooth)

	weightSum := 2.0 * (p.WeightDCO + p.WeightRSI + p.WeightSRSI)
	out := make([]float64, len(donchianPrice))
	for i := range out {
		out[i] = ((dco[i]+dcoSmooth[i])*p.WeightDCO +
			(rsi[i]+rsiSmooth[i])*p.WeightRSI +
			(k[i]+d[i])*p.WeightSRSI) / weightSum
	}
	return out
}

package indicators

import "math"

// EWMA is an exponentially weighted mean with alpha = 2/(span+1), computed
// recursively from the first observation (adjust=false). NaN inputs keep the
// previous average.
func EWMA(values []float64, span int) []float64 {
	out := NaNs(len(values))
	if span <= 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1)
	prev := math.NaN()
	for i, v := range values {
		switch {
		case math.IsNaN(v):
		case math.IsNaN(prev):
			prev = v
		default:
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}

// MACD returns the fast-slow EWMA difference, its signal line and the histogram.
func MACD(values []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	macd = Sub(EWMA(values, fast), EWMA(values, slow))
	sig = EWMA(macd, signal)
	hist = Sub(macd, sig)
	return macd, sig, hist
}

// RSI uses simple rolling means of gains and losses over period. The first
// delta, and any delta touching a NaN, counts as zero. A window without losses reads 100; a flat window is NaN.
func RSI(values []float64, period int) []float64 {
	n := len(values)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		d := values[i] - values[i-1]
		switch {
		case d > 0:
			gains[i] = d
		case d < 0:
			losses[i] = -d
		}
	}
	avgGain := SMA(gains, period)
	avgLoss := SMA(losses, period)
	out := NaNs(n)
	for i := range out {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) {
			continue
		}
		if l == 0 {
			if g == 0 {
				continue
			}
			out[i] = 100
			continue
		}
		out[i] = 100 - 100/(1+g/l)
	}
	return out
}

// Bollinger returns the middle band with upper and lower bands k sample
// standard deviations away.
func Bollinger(values []float64, period int, k float64) (upper, mid, lower []float64) {
	mid = SMA(values, period)
	std := RollingStd(values, period)
	upper = NaNs(len(values))
	lower = NaNs(len(values))
	for i := range values {
		if math.IsNaN(mid[i]) || math.IsNaN(std[i]) {
			continue
		}
		upper[i] = mid[i] + k*std[i]
		lower[i] = mid[i] - k*std[i]
	}
	return upper, mid, lower
}

package volmodel

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RollingStd returns the sample standard deviation over a trailing window.
// The first window-1 entries are NaN.
func RollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		out[i] = stat.StdDev(values[i-window+1:i+1], nil)
	}
	return out
}

// RSI returns the relative strength index using Wilder smoothing
// (exponential weighting with alpha 1/window). The first close has no change
// and counts as a zero gain and loss, so entries before index window-1 are
// NaN. A window with no losses reads 100.
func RSI(closes []float64, window int) []float64 {
	out := nanSlice(len(closes))
	if window < 1 {
		return out
	}

	alpha := 1 / float64(window)
	var avgGain, avgLoss float64
	for i := range closes {
		var gain, loss float64
		if i > 0 {
			diff := closes[i] - closes[i-1]
			gain, loss = math.Max(diff, 0), math.Max(-diff, 0)
		}
		avgGain = alpha*gain + (1-alpha)*avgGain
		avgLoss = alpha*loss + (1-alpha)*avgLoss

		if i < window-1 {
			continue
		}
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		out[i] = 100 - 100/(1+avgGain/avgLoss)
	}
	return out
}

// ATR returns the average true range. The value at index window-1 is the
// mean of the first window true ranges, later values use Wilder smoothing and
// earlier values are zero.
func ATR(highs, lows, closes []float64, window int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	if window < 1 || n < window || len(highs) != n || len(lows) != n {
		return out
	}

	tr := make([]float64, n)
	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		prev := closes[i-1]
		tr[i] = math.Max(highs[i], prev) - math.Min(lows[i], prev)
	}

	out[window-1] = stat.Mean(tr[:window], nil)
	for i := window; i < n; i++ {
		out[i] = (out[i-1]*float64(window-1) + tr[i]) / float64(window)
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

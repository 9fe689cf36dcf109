// Package volmodel predicts the standard deviation of a stock's closing
// price some days ahead from volatility features, using a random forest.
package volmodel

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	stdWindow = 20
	rsiWindow = 14
	atrWindow = 14
)

// FeatureNames lists the model inputs in column order.
var FeatureNames = []string{
	"High", "Low", "Close", "Volume", "RollingStd", "VIX", "VIXRollingStd", "RSI", "ATR",
}

// ErrInsufficientHistory is returned when too few complete rows remain to
// train and evaluate the model.
var ErrInsufficientHistory = errors.New("not enough price history to train the volatility model")

// Bar is one daily price record.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Dataset is the training matrix plus the most recent feature row, which
// has no target yet and is used for prediction.
type Dataset struct {
	Dates  []time.Time
	X      [][]float64
	Y      []float64
	Latest []float64
	AsOf   time.Time
}

// BuildDataset aligns bars with VIX bars on date, computes the features and
// pairs each row with the rolling std dte rows later. Rows with any
// undefined value are dropped.
func BuildDataset(bars, vix []Bar, dte int) (*Dataset, error) {
	if dte < 1 {
		return nil, fmt.Errorf("days to expiration must be at least 1, got %d", dte)
	}

	aligned, vixClose := align(bars, vix)
	n := len(aligned)

	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, b := range aligned {
		highs[i], lows[i], closes[i] = b.High, b.Low, b.Close
	}

	std := RollingStd(closes, stdWindow)
	vixStd := RollingStd(vixClose, stdWindow)
	rsi := RSI(closes, rsiWindow)
	atr := ATR(highs, lows, closes, atrWindow)

	ds := &Dataset{}
	for i, b := range aligned {
		row := []float64{b.High, b.Low, b.Close, b.Volume, std[i], vixClose[i], vixStd[i], rsi[i], atr[i]}
		if !complete(row) {
			continue
		}
		ds.Latest = row
		ds.AsOf = b.Date

		if i+dte >= n || math.IsNaN(std[i+dte]) {
			continue
		}
		ds.Dates = append(ds.Dates, b.Date)
		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, std[i+dte])
	}

	if ds.Latest == nil {
		return nil, ErrInsufficientHistory
	}
	return ds, nil
}

func align(bars, vix []Bar) ([]Bar, []float64) {
	vixByDay := make(map[string]float64, len(vix))
	for _, b := range vix {
		vixByDay[dayKey(b.Date)] = b.Close
	}

	sorted := append([]Bar(nil), bars...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var out []Bar
	var closes []float64
	for _, b := range sorted {
		v, ok := vixByDay[dayKey(b.Date)]
		if !ok {
			continue
		}
		out = append(out, b)
		closes = append(closes, v)
	}
	return out, closes
}

func dayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

func complete(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

package cmd

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/jonandersen/payoff/internal/marketdata"
	"github.com/jonandersen/payoff/internal/volmodel"
)

var testNow = time.Date(2025, 1, 7, 14, 0, 0, 0, time.UTC)

// testBars returns n daily bars ending the day before testNow.
func testBars(n int, base, amp float64) []volmodel.Bar {
	bars := make([]volmodel.Bar, n)
	first := testNow.AddDate(0, 0, -n)
	for i := range bars {
		c := base + amp*math.Sin(float64(i)/9) + 0.02*float64(i)
		bars[i] = volmodel.Bar{
			Date:   time.Date(first.Year(), first.Month(), first.Day()+i, 0, 0, 0, 0, time.UTC),
			Open:   c - 0.3,
			High:   c + 1 + math.Abs(math.Cos(float64(i)/4)),
			Low:    c - 1,
			Close:  c,
			Volume: 2e6 + float64(i%7)*1e5,
		}
	}
	return bars
}

// testProvider serves testChain plus a spot of 101 and a year of history.
func testProvider() *marketdata.MockProvider {
	return marketdata.NewMockProvider().
		WithChain(testChain()).
		WithQuote("AAPL", 101).
		WithHistory("AAPL", testBars(260, 100, 6)).
		WithHistory(volmodel.VIXSymbol, testBars(260, 18, 3))
}

// fixedStd predicts a constant std.
type fixedStd float64

func (f fixedStd) PredictStd(_ context.Context, symbol string, _, _ time.Time, dte int) (*volmodel.Prediction, error) {
	return &volmodel.Prediction{Symbol: symbol, DTE: dte, Std: float64(f), MSE: 0.25, TrainRows: 160, TestRows: 40}, nil
}

func testSessionOptions(t *testing.T) sessionOptions {
	t.Helper()
	return sessionOptions{
		provider:     testProvider(),
		predictor:    fixedStd(4),
		multiplier:   2,
		historyYears: 1,
		plotDir:      t.TempDir(),
		now:          func() time.Time { return testNow },
	}
}

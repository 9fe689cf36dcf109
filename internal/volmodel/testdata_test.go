package volmodel

import (
	"context"
	"math"
	"time"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func syntheticBars(n int) []Bar {
	bars := make([]Bar, n)
	for i := range bars {
		c := 100 + 10*math.Sin(float64(i)/10) + 0.05*float64(i)
		bars[i] = Bar{
			Date:   day0.AddDate(0, 0, i),
			Open:   c - 0.5,
			High:   c + 1 + math.Abs(math.Cos(float64(i)/3)),
			Low:    c - 1,
			Close:  c,
			Volume: 1e6 + float64(i*1000),
		}
	}
	return bars
}

func syntheticVIX(n int) []Bar {
	bars := make([]Bar, n)
	for i := range bars {
		c := 20 + 3*math.Sin(float64(i)/7)
		bars[i] = Bar{Date: day0.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return bars
}

type fakeSource struct {
	bars  []Bar
	vix   []Bar
	err   error
	calls []string
}

func (f *fakeSource) History(_ context.Context, symbol string, _, _ time.Time) ([]Bar, error) {
	f.calls = append(f.calls, symbol)
	if f.err != nil {
		return nil, f.err
	}
	if symbol == VIXSymbol {
		return f.vix, nil
	}
	return f.bars, nil
}

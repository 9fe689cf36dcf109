package payoff

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// SweepStep is the spacing between hypothetical prices.
const SweepStep = 0.1

var (
	// ErrInvalidSpot is returned when the underlying price is not positive.
	ErrInvalidSpot = errors.New("spot price must be positive")

	// ErrEmptySweep is returned when both sweep bounds round to the same
	// price, which happens for spot prices below about 1.25.
	ErrEmptySweep = errors.New("spot price too low for a price sweep")
)

// NewSweep returns ascending prices from round(spot*0.8) inclusive to
// round(spot*1.2) exclusive, spaced SweepStep apart. Rounding is half-to-even.
// It fails with ErrEmptySweep when the bounds coincide.
func NewSweep(spot float64) ([]float64, error) {
	if spot <= 0 || math.IsNaN(spot) || math.IsInf(spot, 0) {
		return nil, ErrInvalidSpot
	}

	lo := math.RoundToEven(spot * 0.8)
	hi := math.RoundToEven(spot * 1.2)
	n := int(math.Ceil((hi-lo)/SweepStep - 1e-9))
	if n < 1 {
		return nil, ErrEmptySweep
	}

	sweep := make([]float64, n)
	for i := range sweep {
		sweep[i] = lo + float64(i)*SweepStep
	}
	return sweep, nil
}

// Combine sums the profit of every leg at each sweep price.
func Combine(legs []Leg, sweep []float64) []float64 {
	profits := make([]float64, len(sweep))
	for _, leg := range legs {
		for i, price := range sweep {
			profits[i] += leg.Profit(price)
		}
	}
	return profits
}

// Breakeven returns the sweep price at the first index with the smallest
// absolute profit, rounded to three decimals.
func Breakeven(sweep, profits []float64) float64 {
	if len(sweep) == 0 || len(profits) != len(sweep) {
		return 0
	}

	best := 0
	for i := 1; i < len(profits); i++ {
		if math.Abs(profits[i]) < math.Abs(profits[best]) {
			best = i
		}
	}
	return math.Round(sweep[best]*1000) / 1000
}

// Breakevens returns every price where the curve crosses or touches zero,
// linearly interpolated between sweep points.
func Breakevens(sweep, profits []float64) []float64 {
	var out []float64
	if len(sweep) == 0 || len(profits) != len(sweep) {
		return out
	}

	for i := 0; i < len(profits); i++ {
		if profits[i] == 0 {
			// Flat zero stretches report only their first point.
			if i == 0 || profits[i-1] != 0 {
				out = append(out, round3(sweep[i]))
			}
			continue
		}
		if i == 0 || profits[i-1] == 0 {
			continue
		}
		if (profits[i-1] < 0) != (profits[i] < 0) {
			x0, x1 := sweep[i-1], sweep[i]
			y0, y1 := profits[i-1], profits[i]
			out = append(out, round3(x0-y0*(x1-x0)/(y1-y0)))
		}
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Regions holds the integrated areas of a curve inside a price range.
type Regions struct {
	Profit float64 `json:"profit_area"`
	Loss   float64 `json:"loss_area"`
}

// Net is profit area plus (negative) loss area.
func (r Regions) Net() float64 {
	return r.Profit + r.Loss
}

// IntegrateRegions integrates the curve over the points whose price lies in
// r. Each contiguous run of profit >= 0 contributes to the profit area and
// each run of profit < 0 to the loss area. Runs with a single point add zero.
func IntegrateRegions(sweep, profits []float64, r Range) Regions {
	var regions Regions
	if len(sweep) == 0 || len(profits) != len(sweep) {
		return regions
	}

	var xs, ys []float64
	flush := func() {
		if len(xs) >= 2 {
			area := integrate.Trapezoidal(xs, ys)
			if ys[0] >= 0 {
				regions.Profit += area
			} else {
				regions.Loss += area
			}
		}
		xs, ys = xs[:0], ys[:0]
	}

	for i, price := range sweep {
		if price < r.Lower || price > r.Upper {
			flush()
			continue
		}
		if len(ys) > 0 && (ys[0] >= 0) != (profits[i] >= 0) {
			flush()
		}
		xs = append(xs, price)
		ys = append(ys, profits[i])
	}
	flush()

	return regions
}

// Extremes returns the maximum and minimum of the curve.
func Extremes(profits []float64) (maxProfit, maxLoss float64) {
	if len(profits) == 0 {
		return 0, 0
	}
	return floats.Max(profits), floats.Min(profits)
}

// NearestIndex returns the index of the sweep price closest to price.
func NearestIndex(sweep []float64, price float64) int {
	best := 0
	for i := 1; i < len(sweep); i++ {
		if math.Abs(sweep[i]-price) < math.Abs(sweep[best]-price) {
			best = i
		}
	}
	return best
}

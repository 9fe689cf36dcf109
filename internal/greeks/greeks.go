// Package greeks prices European options with Black-Scholes (no dividends)
// and backs out implied volatility from a market price.
package greeks

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jonandersen/payoff/internal/payoff"
)

// ErrNoConvergence is returned when implied volatility cannot be bracketed.
var ErrNoConvergence = errors.New("implied volatility did not converge")

// Inputs describes an option for pricing. Years is time to expiration in
// years, Rate and Vol are annualized decimals.
type Inputs struct {
	Type   payoff.OptionType
	Spot   float64
	Strike float64
	Years  float64
	Rate   float64
	Vol    float64
}

// Result holds the price and sensitivities. Theta is per calendar day, Vega
// and Rho are per one percentage point.
type Result struct {
	Price float64 `json:"price"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

func (in Inputs) valid() bool {
	return in.Spot > 0 && in.Strike > 0 && in.Years > 0 && in.Vol > 0
}

func (in Inputs) d1d2() (float64, float64) {
	sqrtT := math.Sqrt(in.Years)
	d1 := (math.Log(in.Spot/in.Strike) + (in.Rate+in.Vol*in.Vol/2)*in.Years) / (in.Vol * sqrtT)
	return d1, d1 - in.Vol*sqrtT
}

// intrinsic is the value at expiration, used when the model is undefined.
func (in Inputs) intrinsic() float64 {
	if in.Type == payoff.Put {
		return math.Max(in.Strike-in.Spot, 0)
	}
	return math.Max(in.Spot-in.Strike, 0)
}

// Price returns the Black-Scholes value of the option.
func Price(in Inputs) float64 {
	if !in.valid() {
		return in.intrinsic()
	}

	d1, d2 := in.d1d2()
	discount := math.Exp(-in.Rate * in.Years)
	n := distuv.UnitNormal
	if in.Type == payoff.Put {
		return in.Strike*discount*n.CDF(-d2) - in.Spot*n.CDF(-d1)
	}
	return in.Spot*n.CDF(d1) - in.Strike*discount*n.CDF(d2)
}

// Compute returns the price and greeks for the option.
func Compute(in Inputs) Result {
	if !in.valid() {
		return Result{Price: in.intrinsic()}
	}

	n := distuv.UnitNormal
	d1, d2 := in.d1d2()
	sqrtT := math.Sqrt(in.Years)
	discount := math.Exp(-in.Rate * in.Years)
	pdf := n.Prob(d1)

	r := Result{
		Price: Price(in),
		Gamma: pdf / (in.Spot * in.Vol * sqrtT),
		Vega:  in.Spot * pdf * sqrtT / 100,
	}

	decay := -in.Spot * pdf * in.Vol / (2 * sqrtT)
	if in.Type == payoff.Put {
		r.Delta = n.CDF(d1) - 1
		r.Theta = (decay + in.Rate*in.Strike*discount*n.CDF(-d2)) / 365
		r.Rho = -in.Strike * in.Years * discount * n.CDF(-d2) / 100
	} else {
		r.Delta = n.CDF(d1)
		r.Theta = (decay - in.Rate*in.Strike*discount*n.CDF(d2)) / 365
		r.Rho = in.Strike * in.Years * discount * n.CDF(d2) / 100
	}
	return r
}

// ImpliedVol finds the volatility whose model price matches price, by
// bisection between 0.1% and 500%.
func ImpliedVol(in Inputs, price float64) (float64, error) {
	if in.Spot <= 0 || in.Strike <= 0 || in.Years <= 0 || price <= 0 {
		return 0, ErrNoConvergence
	}

	lo, hi := 0.001, 5.0
	at := func(vol float64) float64 {
		in.Vol = vol
		return Price(in) - price
	}

	fLo, fHi := at(lo), at(hi)
	if fLo > 0 || fHi < 0 {
		return 0, ErrNoConvergence
	}

	for range 200 {
		mid := (lo + hi) / 2
		f := at(mid)
		if math.Abs(f) < 1e-8 || hi-lo < 1e-10 {
			return mid, nil
		}
		if f < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}

// YearsBetween returns the year fraction from now until expiry on a
// 365-day basis, or zero when expiry has passed.
func YearsBetween(now, expiry time.Time) float64 {
	d := expiry.Sub(now)
	if d <= 0 {
		return 0
	}
	return d.Hours() / 24 / 365
}

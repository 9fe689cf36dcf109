package payoff

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultRangeMultiplier is the number of standard deviations on each side
// of spot that make up the expected range.
const DefaultRangeMultiplier = 2.0

// Range is a closed price interval.
type Range struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether price lies in the range.
func (r Range) Contains(price float64) bool {
	return price >= r.Lower && price <= r.Upper
}

// ExpectedRange returns [spot - k*std, spot + k*std]. A non-positive k uses
// DefaultRangeMultiplier.
func ExpectedRange(spot, std, k float64) Range {
	if k <= 0 {
		k = DefaultRangeMultiplier
	}
	return Range{Lower: spot - k*std, Upper: spot + k*std}
}

// StrikeMark is the combined profit at the sweep point nearest a strike.
type StrikeMark struct {
	Strike float64 `json:"strike"`
	Price  float64 `json:"price"`
	Profit float64 `json:"profit"`
}

// Analysis is the full result of evaluating a position.
type Analysis struct {
	Legs        []Leg           `json:"legs"`
	Prices      []float64       `json:"prices"`
	Profits     []float64       `json:"profits"`
	Spot        float64         `json:"spot"`
	Range       Range           `json:"range"`
	Breakeven   float64         `json:"breakeven"`
	Breakevens  []float64       `json:"breakevens"`
	ProfitArea  float64         `json:"profit_area"`
	LossArea    float64         `json:"loss_area"`
	NetArea     float64         `json:"net_area"`
	MaxProfit   float64         `json:"max_profit"`
	MaxLoss     float64         `json:"max_loss"`
	StrikeMarks []StrikeMark    `json:"strike_marks"`
	NetPremium  decimal.Decimal `json:"net_premium"`
}

// NetPremium returns the total premium paid (positive) or received
// (negative) per share across all legs.
func NetPremium(legs []Leg) decimal.Decimal {
	total := decimal.Zero
	for _, leg := range legs {
		p := decimal.NewFromFloat(leg.Premium).Mul(decimal.NewFromInt(int64(leg.Qty())))
		if leg.Direction == Short {
			p = p.Neg()
		}
		total = total.Add(p)
	}
	return total
}

// Analyze evaluates legs over the sweep around spot and integrates the
// curve inside r.
func Analyze(legs []Leg, spot float64, r Range) (*Analysis, error) {
	sweep, err := NewSweep(spot)
	if err != nil {
		return nil, fmt.Errorf("failed to build price sweep: %w", err)
	}

	profits := Combine(legs, sweep)
	regions := IntegrateRegions(sweep, profits, r)
	maxProfit, maxLoss := Extremes(profits)

	a := &Analysis{
		Legs:        append([]Leg(nil), legs...),
		Prices:      sweep,
		Profits:     profits,
		Spot:        spot,
		Range:       r,
		Breakeven:   Breakeven(sweep, profits),
		Breakevens:  Breakevens(sweep, profits),
		ProfitArea:  regions.Profit,
		LossArea:    regions.Loss,
		NetArea:     regions.Net(),
		MaxProfit:   maxProfit,
		MaxLoss:     maxLoss,
		StrikeMarks: strikeMarks(legs, sweep, profits),
		NetPremium:  NetPremium(legs),
	}
	return a, nil
}

func strikeMarks(legs []Leg, sweep, profits []float64) []StrikeMark {
	seen := make(map[float64]bool)
	var marks []StrikeMark
	for _, leg := range legs {
		if seen[leg.Strike] {
			continue
		}
		seen[leg.Strike] = true
		i := NearestIndex(sweep, leg.Strike)
		marks = append(marks, StrikeMark{Strike: leg.Strike, Price: sweep[i], Profit: profits[i]})
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].Strike < marks[j].Strike })
	return marks
}

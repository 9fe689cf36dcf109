package payoff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSweep(t *testing.T) {
	sweep, err := NewSweep(100)
	require.NoError(t, err)

	require.Len(t, sweep, 400)
	assert.Equal(t, 80.0, sweep[0])
	assert.InDelta(t, 119.9, sweep[len(sweep)-1], 1e-9)

	for i := 1; i < len(sweep); i++ {
		assert.Greater(t, sweep[i], sweep[i-1])
	}
}

func TestNewSweep_RoundsHalfToEven(t *testing.T) {
	// 3.125 * 0.8 = 2.5 rounds down to 2; 3.125 * 1.2 = 3.75 rounds to 4.
	sweep, err := NewSweep(3.125)
	require.NoError(t, err)

	require.Len(t, sweep, 20)
	assert.Equal(t, 2.0, sweep[0])
}

func TestNewSweep_InvalidSpot(t *testing.T) {
	for _, spot := range []float64{0, -10} {
		_, err := NewSweep(spot)
		assert.ErrorIs(t, err, ErrInvalidSpot)
	}
}

func TestNewSweep_EmptyRange(t *testing.T) {
	for _, spot := range []float64{0.3, 1, 1.2} {
		_, err := NewSweep(spot)
		assert.ErrorIs(t, err, ErrEmptySweep, "spot %v", spot)
	}

	sweep, err := NewSweep(1.3)
	require.NoError(t, err)
	require.Len(t, sweep, 10)
	assert.Equal(t, 1.0, sweep[0])
}

func TestCombine_NoLegsIsFlat(t *testing.T) {
	sweep, err := NewSweep(50)
	require.NoError(t, err)

	profits := Combine(nil, sweep)
	require.Len(t, profits, len(sweep))
	for _, p := range profits {
		assert.Zero(t, p)
	}
}

func TestCombine_SumsLegs(t *testing.T) {
	legs := []Leg{
		{Type: Call, Strike: 100, Premium: 5},
		{Type: Call, Direction: Short, Strike: 110, Premium: 2},
	}
	profits := Combine(legs, []float64{90, 105, 120})

	assert.InDelta(t, -3, profits[0], 1e-9)
	assert.InDelta(t, 2, profits[1], 1e-9)
	assert.InDelta(t, 7, profits[2], 1e-9)
}

func TestBreakeven_LongCall(t *testing.T) {
	legs := []Leg{{Type: Call, Strike: 100, Premium: 5}}
	sweep, err := NewSweep(100)
	require.NoError(t, err)

	profits := Combine(legs, sweep)
	assert.Equal(t, 105.0, Breakeven(sweep, profits))
	assert.Equal(t, []float64{105}, Breakevens(sweep, profits))
}

func TestBreakeven_StraddleTakesFirst(t *testing.T) {
	legs := []Leg{
		{Type: Call, Strike: 100, Premium: 5},
		{Type: Put, Strike: 100, Premium: 5},
	}
	sweep, err := NewSweep(100)
	require.NoError(t, err)

	profits := Combine(legs, sweep)
	assert.Equal(t, 90.0, Breakeven(sweep, profits))
	assert.Equal(t, []float64{90, 110}, Breakevens(sweep, profits))
}

func TestBreakevens_Interpolated(t *testing.T) {
	got := Breakevens([]float64{1, 2, 3}, []float64{-1, 3, 5})
	require.Len(t, got, 1)
	assert.InDelta(t, 1.25, got[0], 1e-9)
}

func TestBreakeven_Empty(t *testing.T) {
	assert.Zero(t, Breakeven(nil, nil))
	assert.Empty(t, Breakevens(nil, nil))
}

func TestIntegrateRegions_LongCall(t *testing.T) {
	legs := []Leg{{Type: Call, Strike: 100, Premium: 5}}
	sweep, err := NewSweep(100)
	require.NoError(t, err)
	profits := Combine(legs, sweep)

	regions := IntegrateRegions(sweep, profits, Range{Lower: 89.95, Upper: 110.05})

	// Loss: flat -5 over [90, 100] then linear -5 to -0.1 over [100, 104.9].
	assert.InDelta(t, -62.495, regions.Loss, 1e-6)
	// Profit: triangle from 105 to 110 peaking at 5.
	assert.InDelta(t, 12.5, regions.Profit, 1e-6)
	assert.InDelta(t, -49.995, regions.Net(), 1e-6)
}

func TestIntegrateRegions_SeparateRuns(t *testing.T) {
	// Two profitable runs separated by a loss run must not be bridged.
	sweep := []float64{0, 1, 2, 3, 4, 5}
	profits := []float64{2, 2, -1, -1, 4, 4}

	regions := IntegrateRegions(sweep, profits, Range{Lower: 0, Upper: 5})

	assert.InDelta(t, 6, regions.Profit, 1e-9)
	assert.InDelta(t, -1, regions.Loss, 1e-9)
}

func TestIntegrateRegions_SinglePointAddsNothing(t *testing.T) {
	sweep := []float64{0, 1, 2}
	profits := []float64{5, 5, 5}

	regions := IntegrateRegions(sweep, profits, Range{Lower: 0.5, Upper: 1.5})
	assert.Zero(t, regions.Profit)
	assert.Zero(t, regions.Loss)
}

func TestIntegrateRegions_OutsideRange(t *testing.T) {
	regions := IntegrateRegions([]float64{1, 2, 3}, []float64{1, 1, 1}, Range{Lower: 10, Upper: 20})
	assert.Zero(t, regions.Net())
}

func TestExtremes(t *testing.T) {
	maxProfit, maxLoss := Extremes([]float64{-3, 1, 7, -8, 2})
	assert.Equal(t, 7.0, maxProfit)
	assert.Equal(t, -8.0, maxLoss)

	maxProfit, maxLoss = Extremes(nil)
	assert.Zero(t, maxProfit)
	assert.Zero(t, maxLoss)
}

func TestNearestIndex(t *testing.T) {
	sweep := []float64{10, 10.1, 10.2, 10.3}
	assert.Equal(t, 2, NearestIndex(sweep, 10.21))
	assert.Equal(t, 0, NearestIndex(sweep, 1))
	assert.Equal(t, 3, NearestIndex(sweep, 99))
}

package volmodel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepData() ([][]float64, []float64) {
	X := make([][]float64, 100)
	y := make([]float64, 100)
	for i := range X {
		X[i] = []float64{float64(i), float64(i % 7)}
		if i >= 50 {
			y[i] = 10
		}
	}
	return X, y
}

func TestForest_FitsStep(t *testing.T) {
	X, y := stepData()
	f := &Forest{Trees: 25, Seed: 1}
	require.NoError(t, f.Fit(context.Background(), X, y))

	assert.InDelta(t, 0, f.Predict([]float64{10, 3}), 0.5)
	assert.InDelta(t, 10, f.Predict([]float64{90, 3}), 0.5)
}

func TestForest_Deterministic(t *testing.T) {
	X, y := stepData()
	a := &Forest{Trees: 10, Seed: 7}
	b := &Forest{Trees: 10, Seed: 7}
	require.NoError(t, a.Fit(context.Background(), X, y))
	require.NoError(t, b.Fit(context.Background(), X, y))

	assert.Equal(t, a.PredictAll(X), b.PredictAll(X))
}

func TestForest_Progress(t *testing.T) {
	X, y := stepData()
	var calls, last int
	f := &Forest{Trees: 8, Progress: func(done, total int) {
		calls++
		last = done
		assert.Equal(t, 8, total)
	}}
	require.NoError(t, f.Fit(context.Background(), X, y))

	assert.Equal(t, 8, calls)
	assert.Equal(t, 8, last)
}

func TestForest_ConstantTarget(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}}
	y := []float64{4, 4, 4}
	f := &Forest{Trees: 3}
	require.NoError(t, f.Fit(context.Background(), X, y))

	assert.Equal(t, 4.0, f.Predict([]float64{100}))
}

func TestForest_Errors(t *testing.T) {
	f := &Forest{}
	assert.Error(t, f.Fit(context.Background(), nil, nil))
	assert.Error(t, f.Fit(context.Background(), [][]float64{{1}}, []float64{1, 2}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	X, y := stepData()
	assert.ErrorIs(t, f.Fit(ctx, X, y), context.Canceled)
}

func TestForest_UnfittedPredictsZero(t *testing.T) {
	assert.Zero(t, (&Forest{}).Predict([]float64{1}))
}

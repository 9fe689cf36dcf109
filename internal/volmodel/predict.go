package volmodel

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

const (
	// VIXSymbol is the index whose closes feed the VIX features.
	VIXSymbol = "VIX"

	testFraction = 0.2
	minTrainRows = 10
)

// HistorySource supplies daily bars for a symbol between two dates.
type HistorySource interface {
	History(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error)
}

// Prediction is the model output for one symbol and horizon.
type Prediction struct {
	Symbol    string    `json:"symbol"`
	DTE       int       `json:"dte"`
	Std       float64   `json:"std"`
	MSE       float64   `json:"mse"`
	TrainRows int       `json:"train_rows"`
	TestRows  int       `json:"test_rows"`
	AsOf      time.Time `json:"as_of"`
}

// Predictor trains a fresh forest per request.
type Predictor struct {
	Source   HistorySource
	Trees    int
	Seed     uint64
	Progress ProgressFunc
	Logger   *slog.Logger
}

// NewPredictor returns a predictor with the default forest size.
func NewPredictor(source HistorySource) *Predictor {
	return &Predictor{Source: source, Trees: DefaultTrees, Seed: 42}
}

// PredictStd fetches history for symbol and VIX between start and end,
// trains the model and predicts the rolling std dte trading days after the
// latest complete row.
func (p *Predictor) PredictStd(ctx context.Context, symbol string, start, end time.Time, dte int) (*Prediction, error) {
	if dte < 1 {
		return nil, fmt.Errorf("days to expiration must be at least 1, got %d", dte)
	}

	bars, err := p.Source.History(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s history: %w", symbol, err)
	}
	vix, err := p.Source.History(ctx, VIXSymbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s history: %w", VIXSymbol, err)
	}

	ds, err := BuildDataset(bars, vix, dte)
	if err != nil {
		return nil, err
	}
	if len(ds.X) < minTrainRows {
		return nil, fmt.Errorf("%w: %d usable rows for a %d day horizon", ErrInsufficientHistory, len(ds.X), dte)
	}

	Xtrain, Xtest, ytrain, ytest := TrainTestSplit(ds.X, ds.Y, testFraction, p.Seed)

	forest := &Forest{Trees: p.Trees, Seed: p.Seed, Progress: p.Progress}
	if err := forest.Fit(ctx, Xtrain, ytrain); err != nil {
		return nil, fmt.Errorf("failed to train volatility model: %w", err)
	}

	pred := &Prediction{
		Symbol:    symbol,
		DTE:       dte,
		Std:       forest.Predict(ds.Latest),
		MSE:       MSE(ytest, forest.PredictAll(Xtest)),
		TrainRows: len(Xtrain),
		TestRows:  len(Xtest),
		AsOf:      ds.AsOf,
	}

	p.logger().Info("volatility model trained",
		"symbol", symbol,
		"dte", dte,
		"std", pred.Std,
		"mse", pred.MSE,
		"train_rows", pred.TrainRows,
		"test_rows", pred.TestRows,
	)
	return pred, nil
}

func (p *Predictor) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// DTE returns the whole days from now until expiration plus one. Both times
// are compared by their wall clocks, so a date-only expiration means midnight
// in the caller's zone rather than UTC.
func DTE(now, expiration time.Time) int {
	return int(math.Floor(wallClock(expiration).Sub(wallClock(now)).Hours()/24)) + 1
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// StartDate returns the beginning of the training window, depth years of
// 365 days before expiration.
func StartDate(expiration time.Time, depth int) time.Time {
	if depth < 1 {
		depth = 1
	}
	return expiration.AddDate(0, 0, -365*depth)
}

package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonandersen/payoff/internal/marketdata"
	"github.com/jonandersen/payoff/internal/payoff"
	"github.com/jonandersen/payoff/internal/volmodel"
)

type fakePredictor struct {
	std   float64
	err   error
	calls int
	dte   int
	start time.Time
}

func (f *fakePredictor) PredictStd(_ context.Context, symbol string, start, _ time.Time, dte int) (*volmodel.Prediction, error) {
	f.calls++
	f.dte = dte
	f.start = start
	if f.err != nil {
		return nil, f.err
	}
	return &volmodel.Prediction{Symbol: symbol, DTE: dte, Std: f.std}, nil
}

type invalidatingProvider struct {
	*marketdata.MockProvider
	invalidated []string
}

func (p *invalidatingProvider) Invalidate(symbol string) error {
	p.invalidated = append(p.invalidated, symbol)
	return nil
}

func testChain() *marketdata.Chain {
	return &marketdata.Chain{
		Symbol:     "AAPL",
		Expiration: "2025-01-17",
		Calls: []marketdata.Contract{
			{Symbol: "AAPL250117C00100000", Type: payoff.Call, Strike: 100, Last: 5},
			{Symbol: "AAPL250117C00110000", Type: payoff.Call, Strike: 110, Last: 2},
		},
		Puts: []marketdata.Contract{
			{Symbol: "AAPL250117P00095000", Type: payoff.Put, Strike: 95, Last: 1.5},
		},
	}
}

func newTestSession(t *testing.T, provider marketdata.Provider, predictor StdPredictor) *Session {
	t.Helper()
	s, err := NewSession(Config{Symbol: "AAPL", Expiration: "2025-01-17"}, provider, predictor, nil)
	require.NoError(t, err)
	s.SetClock(func() time.Time { return time.Date(2025, 1, 7, 15, 0, 0, 0, time.UTC) })
	return s
}

func loadedSession(t *testing.T) *Session {
	t.Helper()
	provider := marketdata.NewMockProvider().WithChain(testChain()).WithQuote("AAPL", 100)
	s := newTestSession(t, provider, &fakePredictor{std: 5})
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestNewSession_Validation(t *testing.T) {
	_, err := NewSession(Config{Expiration: "2025-01-17"}, nil, nil, nil)
	assert.Error(t, err)

	_, err = NewSession(Config{Symbol: "AAPL", Expiration: "01/17/2025"}, nil, nil, nil)
	assert.Error(t, err)
}

func TestSession_Load(t *testing.T) {
	provider := marketdata.NewMockProvider().WithChain(testChain()).WithQuote("AAPL", 100)
	predictor := &fakePredictor{std: 5}
	s := newTestSession(t, provider, predictor)

	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, 100.0, s.Spot())
	assert.Equal(t, payoff.Range{Lower: 90, Upper: 110}, s.Range())
	assert.Equal(t, 10, predictor.dte)
	assert.Equal(t, time.Date(2024, 1, 18, 0, 0, 0, 0, time.UTC), predictor.start)
	assert.Equal(t, 5.0, s.Prediction().Std)
	assert.Len(t, s.Chain().Calls, 2)
}

func TestSession_LoadErrors(t *testing.T) {
	ctx := context.Background()

	empty := newTestSession(t, marketdata.NewMockProvider().WithQuote("AAPL", 100), &fakePredictor{std: 1})
	assert.ErrorContains(t, empty.Load(ctx), "no options found")

	noQuote := newTestSession(t, marketdata.NewMockProvider().WithChain(testChain()), &fakePredictor{std: 1})
	assert.ErrorContains(t, noQuote.Load(ctx), "failed to get quote")

	modelErr := newTestSession(t,
		marketdata.NewMockProvider().WithChain(testChain()).WithQuote("AAPL", 100),
		&fakePredictor{err: volmodel.ErrInsufficientHistory})
	assert.ErrorIs(t, modelErr.Load(ctx), volmodel.ErrInsufficientHistory)

	offline := newTestSession(t, marketdata.NewMockProvider().WithError(errors.New("offline")), &fakePredictor{})
	assert.ErrorContains(t, offline.Load(ctx), "failed to get option chain")
}

func TestSession_LoadDayBeforeExpiryEvening(t *testing.T) {
	provider := marketdata.NewMockProvider().WithChain(testChain()).WithQuote("AAPL", 100)
	predictor := &fakePredictor{std: 1}
	s := newTestSession(t, provider, predictor)
	edt := time.FixedZone("EDT", -4*60*60)
	s.SetClock(func() time.Time { return time.Date(2025, 1, 16, 21, 0, 0, 0, edt) })

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, 1, predictor.dte)
}

func TestSession_LoadExpired(t *testing.T) {
	provider := marketdata.NewMockProvider().WithChain(testChain()).WithQuote("AAPL", 100)
	s := newTestSession(t, provider, &fakePredictor{std: 1})
	s.SetClock(func() time.Time { return time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC) })

	assert.ErrorContains(t, s.Load(context.Background()), "has passed")
}

func TestSession_AddLeg(t *testing.T) {
	s := loadedSession(t)

	leg, err := s.AddLeg(Command{Kind: KindAdd, Direction: payoff.Long, Type: payoff.Call, Strike: 100, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 5.0, leg.Premium)
	assert.Equal(t, "AAPL250117C00100000", leg.Symbol)

	_, err = s.AddLeg(Command{Kind: KindAdd, Direction: payoff.Short, Type: payoff.Put, Strike: 95})
	require.NoError(t, err)

	legs := s.Legs()
	require.Len(t, legs, 2)
	assert.Equal(t, 1, legs[1].Quantity)
	assert.Equal(t, payoff.Short, legs[1].Direction)
}

func TestSession_AddLegUnknownStrike(t *testing.T) {
	s := loadedSession(t)

	_, err := s.AddLeg(Command{Kind: KindAdd, Type: payoff.Put, Strike: 100})
	assert.ErrorIs(t, err, ErrStrikeNotFound)
	assert.Equal(t, "Option not found, make sure the strike price is valid.", err.Error())
	assert.Empty(t, s.Legs())
}

func TestSession_NotLoaded(t *testing.T) {
	s := newTestSession(t, marketdata.NewMockProvider(), &fakePredictor{})

	_, err := s.AddLeg(Command{Type: payoff.Call, Strike: 100})
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = s.Analyze()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestSession_RemoveAndClear(t *testing.T) {
	s := loadedSession(t)
	for _, strike := range []float64{100, 110} {
		_, err := s.AddLeg(Command{Type: payoff.Call, Strike: strike})
		require.NoError(t, err)
	}

	removed, err := s.RemoveLeg(1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, removed.Strike)
	require.Len(t, s.Legs(), 1)
	assert.Equal(t, 110.0, s.Legs()[0].Strike)

	_, err = s.RemoveLeg(5)
	assert.Error(t, err)

	s.Clear()
	assert.Empty(t, s.Legs())
}

func TestSession_Analyze(t *testing.T) {
	s := loadedSession(t)
	_, err := s.AddLeg(Command{Direction: payoff.Long, Type: payoff.Call, Strike: 100})
	require.NoError(t, err)
	_, err = s.AddLeg(Command{Direction: payoff.Short, Type: payoff.Call, Strike: 110})
	require.NoError(t, err)

	a, err := s.Analyze()
	require.NoError(t, err)

	assert.Equal(t, 103.0, a.Breakeven)
	assert.Equal(t, payoff.Range{Lower: 90, Upper: 110}, a.Range)
	assert.InDelta(t, 7, a.MaxProfit, 1e-9)
	assert.Len(t, a.Legs, 2)
}

func TestSession_Reset(t *testing.T) {
	provider := &invalidatingProvider{MockProvider: marketdata.NewMockProvider().WithChain(testChain()).WithQuote("AAPL", 100)}
	predictor := &fakePredictor{std: 5}
	s := newTestSession(t, provider, predictor)
	require.NoError(t, s.Load(context.Background()))

	_, err := s.AddLeg(Command{Type: payoff.Call, Strike: 100})
	require.NoError(t, err)

	require.NoError(t, s.Reset(context.Background()))

	assert.Empty(t, s.Legs())
	assert.Equal(t, []string{"AAPL", volmodel.VIXSymbol}, provider.invalidated)
	assert.Equal(t, 2, predictor.calls)
	assert.Equal(t, 2, provider.Calls["Chain"])
}

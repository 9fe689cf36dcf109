// Package strategy holds an interactive options position: the loaded
// chain, spot price and expected range, and the legs chosen so far.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonandersen/payoff/internal/marketdata"
	"github.com/jonandersen/payoff/internal/payoff"
	"github.com/jonandersen/payoff/internal/volmodel"
)

var (
	// ErrStrikeNotFound is returned when no contract has the requested strike.
	ErrStrikeNotFound = errors.New("Option not found, make sure the strike price is valid.")

	// ErrNoLegs is returned when a position has no legs to evaluate.
	ErrNoLegs = errors.New("no legs selected: add one with <+|-><c|p> <strike>")

	// ErrNotLoaded is returned when the session is used before Load.
	ErrNotLoaded = errors.New("session has no market data loaded")
)

// StdPredictor estimates the price standard deviation at a horizon.
type StdPredictor interface {
	PredictStd(ctx context.Context, symbol string, start, end time.Time, dte int) (*volmodel.Prediction, error)
}

// Invalidator drops cached market data for a symbol.
type Invalidator interface {
	Invalidate(symbol string) error
}

// Config identifies what a session explores.
type Config struct {
	Symbol          string
	Expiration      string
	RangeMultiplier float64
	HistoryYears    int
}

// Session is safe for use by one UI goroutine plus background loads.
type Session struct {
	cfg       Config
	provider  marketdata.Provider
	predictor StdPredictor
	logger    *slog.Logger
	now       func() time.Time

	mu         sync.RWMutex
	expiry     time.Time
	spot       float64
	chain      *marketdata.Chain
	prediction *volmodel.Prediction
	rng        payoff.Range
	legs       []payoff.Leg
}

// NewSession validates cfg and returns an unloaded session.
func NewSession(cfg Config, provider marketdata.Provider, predictor StdPredictor, logger *slog.Logger) (*Session, error) {
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	expiry, err := time.Parse(time.DateOnly, cfg.Expiration)
	if err != nil {
		return nil, fmt.Errorf("invalid expiration date %q (use YYYY-MM-DD): %w", cfg.Expiration, err)
	}
	if cfg.RangeMultiplier <= 0 {
		cfg.RangeMultiplier = payoff.DefaultRangeMultiplier
	}
	if cfg.HistoryYears <= 0 {
		cfg.HistoryYears = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		cfg:       cfg,
		provider:  provider,
		predictor: predictor,
		logger:    logger.With("symbol", cfg.Symbol, "expiration", cfg.Expiration),
		now:       time.Now,
		expiry:    expiry,
	}, nil
}

// SetClock overrides the current time, for tests.
func (s *Session) SetClock(now func() time.Time) {
	s.now = now
}

// Load fetches the chain and spot price and predicts the expected range.
func (s *Session) Load(ctx context.Context) error {
	chain, err := s.provider.Chain(ctx, s.cfg.Symbol, s.cfg.Expiration)
	if err != nil {
		return fmt.Errorf("failed to get option chain: %w", err)
	}
	if len(chain.Calls) == 0 && len(chain.Puts) == 0 {
		return fmt.Errorf("no options found for %s expiring %s", s.cfg.Symbol, s.cfg.Expiration)
	}

	quote, err := s.provider.Quote(ctx, s.cfg.Symbol)
	if err != nil {
		return fmt.Errorf("failed to get quote: %w", err)
	}
	spot := quote.Price()

	dte := volmodel.DTE(s.now(), s.expiry)
	if dte < 1 {
		return fmt.Errorf("expiration %s has passed", s.cfg.Expiration)
	}
	start := volmodel.StartDate(s.expiry, s.cfg.HistoryYears)

	prediction, err := s.predictor.PredictStd(ctx, s.cfg.Symbol, start, s.expiry, dte)
	if err != nil {
		return fmt.Errorf("failed to predict price range: %w", err)
	}
	rng := payoff.ExpectedRange(spot, prediction.Std, s.cfg.RangeMultiplier)

	s.mu.Lock()
	s.chain = chain
	s.spot = spot
	s.prediction = prediction
	s.rng = rng
	s.mu.Unlock()

	s.logger.Info("session loaded",
		"spot", spot,
		"calls", len(chain.Calls),
		"puts", len(chain.Puts),
		"dte", dte,
		"std", prediction.Std,
		"lower", rng.Lower,
		"upper", rng.Upper,
	)
	return nil
}

// Reset clears the legs, drops cached data and loads everything again.
func (s *Session) Reset(ctx context.Context) error {
	s.Clear()
	if inv, ok := s.provider.(Invalidator); ok {
		for _, symbol := range []string{s.cfg.Symbol, volmodel.VIXSymbol} {
			if err := inv.Invalidate(symbol); err != nil {
				s.logger.Warn("cache invalidation failed", "error", err)
			}
		}
	}
	return s.Load(ctx)
}

// AddLeg adds the contract matching cmd, priced at its last trade.
func (s *Session) AddLeg(cmd Command) (payoff.Leg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chain == nil {
		return payoff.Leg{}, ErrNotLoaded
	}
	contract, ok := s.chain.Find(cmd.Type, cmd.Strike)
	if !ok {
		return payoff.Leg{}, ErrStrikeNotFound
	}

	qty := cmd.Quantity
	if qty < 1 {
		qty = 1
	}
	leg := payoff.Leg{
		Type:      cmd.Type,
		Direction: cmd.Direction,
		Strike:    contract.Strike,
		Premium:   contract.Last,
		Quantity:  qty,
		Symbol:    contract.Symbol,
	}
	s.legs = append(s.legs, leg)
	s.logger.Debug("leg added", "leg", leg.String(), "premium", leg.Premium)
	return leg, nil
}

// RemoveLeg removes the leg at 1-based position n.
func (s *Session) RemoveLeg(n int) (payoff.Leg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 1 || n > len(s.legs) {
		return payoff.Leg{}, fmt.Errorf("no leg %d: have %d", n, len(s.legs))
	}
	leg := s.legs[n-1]
	s.legs = append(s.legs[:n-1], s.legs[n:]...)
	return leg, nil
}

// Clear removes all legs.
func (s *Session) Clear() {
	s.mu.Lock()
	s.legs = nil
	s.mu.Unlock()
}

// Legs returns a copy of the selected legs.
func (s *Session) Legs() []payoff.Leg {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]payoff.Leg(nil), s.legs...)
}

// Analyze evaluates the current legs over the loaded spot and range.
func (s *Session) Analyze() (*payoff.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.chain == nil {
		return nil, ErrNotLoaded
	}
	return payoff.Analyze(s.legs, s.spot, s.rng)
}

// Symbol returns the underlying symbol.
func (s *Session) Symbol() string { return s.cfg.Symbol }

// Expiration returns the expiration date as given.
func (s *Session) Expiration() string { return s.cfg.Expiration }

// Spot returns the loaded underlying price.
func (s *Session) Spot() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spot
}

// Chain returns the loaded chain, or nil before Load.
func (s *Session) Chain() *marketdata.Chain {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chain
}

// Range returns the expected price range.
func (s *Session) Range() payoff.Range {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rng
}

// Prediction returns the volatility model output, or nil before Load.
func (s *Session) Prediction() *volmodel.Prediction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prediction
}

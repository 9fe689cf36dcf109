// Package marketdata exposes option chains, quotes and price history from
// Tradier behind rate limiting, retries and a short-lived cache.
package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonandersen/payoff/internal/payoff"
	"github.com/jonandersen/payoff/internal/volmodel"
	"github.com/jonandersen/payoff/pkg/tradier"
)

// Provider is the market data needed by a strategy session.
type Provider interface {
	Expirations(ctx context.Context, symbol string) ([]string, error)
	Chain(ctx context.Context, symbol, expiration string) (*Chain, error)
	Quote(ctx context.Context, symbol string) (*Quote, error)
	History(ctx context.Context, symbol string, start, end time.Time) ([]volmodel.Bar, error)
}

// Contract is one option in a chain. IV is the provider's mid implied
// volatility, zero when not supplied.
type Contract struct {
	Symbol       string            `json:"symbol"`
	Type         payoff.OptionType `json:"type"`
	Strike       float64           `json:"strike"`
	Expiration   string            `json:"expiration"`
	Last         float64           `json:"last"`
	Bid          float64           `json:"bid"`
	Ask          float64           `json:"ask"`
	Volume       int64             `json:"volume"`
	OpenInterest int64             `json:"open_interest"`
	IV           float64           `json:"iv"`
}

// Mid returns the bid/ask midpoint, or Last when there is no two-sided market.
func (c Contract) Mid() float64 {
	if c.Bid > 0 && c.Ask > 0 {
		return (c.Bid + c.Ask) / 2
	}
	return c.Last
}

// Chain is the calls and puts for one expiration, each sorted by strike.
type Chain struct {
	Symbol     string     `json:"symbol"`
	Expiration string     `json:"expiration"`
	Calls      []Contract `json:"calls"`
	Puts       []Contract `json:"puts"`
}

// Find returns the contract of the given type with exactly that strike.
func (c *Chain) Find(t payoff.OptionType, strike float64) (Contract, bool) {
	list := c.Calls
	if t == payoff.Put {
		list = c.Puts
	}
	for _, ct := range list {
		if ct.Strike == strike {
			return ct, true
		}
	}
	return Contract{}, false
}

// Strikes returns the distinct strikes across calls and puts, ascending.
func (c *Chain) Strikes() []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, list := range [][]Contract{c.Calls, c.Puts} {
		for _, ct := range list {
			if !seen[ct.Strike] {
				seen[ct.Strike] = true
				out = append(out, ct.Strike)
			}
		}
	}
	sort.Float64s(out)
	return out
}

// Quote is the latest price of an underlying.
type Quote struct {
	Symbol      string  `json:"symbol"`
	Description string  `json:"description"`
	Last        float64 `json:"last"`
	Bid         float64 `json:"bid"`
	Ask         float64 `json:"ask"`
	Close       float64 `json:"close"`
	PrevClose   float64 `json:"prev_close"`
	Volume      int64   `json:"volume"`
}

// Price returns the last trade, falling back to close and previous close
// when the market has not traded.
func (q Quote) Price() float64 {
	switch {
	case q.Last > 0:
		return q.Last
	case q.Close > 0:
		return q.Close
	default:
		return q.PrevClose
	}
}

func chainFromTradier(symbol, expiration string, options []tradier.Option) *Chain {
	chain := &Chain{Symbol: strings.ToUpper(symbol), Expiration: expiration}
	for _, o := range options {
		ct := Contract{
			Symbol:       o.Symbol,
			Strike:       o.Strike,
			Expiration:   o.ExpirationDate,
			Last:         o.Last,
			Bid:          o.Bid,
			Ask:          o.Ask,
			Volume:       o.Volume,
			OpenInterest: o.OpenInterest,
		}
		if o.Greeks != nil {
			ct.IV = o.Greeks.MidIV
		}
		switch strings.ToLower(o.OptionType) {
		case "call":
			ct.Type = payoff.Call
			chain.Calls = append(chain.Calls, ct)
		case "put":
			ct.Type = payoff.Put
			chain.Puts = append(chain.Puts, ct)
		}
	}
	sort.SliceStable(chain.Calls, func(i, j int) bool { return chain.Calls[i].Strike < chain.Calls[j].Strike })
	sort.SliceStable(chain.Puts, func(i, j int) bool { return chain.Puts[i].Strike < chain.Puts[j].Strike })
	return chain
}

func quoteFromTradier(q tradier.Quote) *Quote {
	return &Quote{
		Symbol:      q.Symbol,
		Description: q.Description,
		Last:        q.Last,
		Bid:         q.Bid,
		Ask:         q.Ask,
		Close:       q.Close,
		PrevClose:   q.PrevClose,
		Volume:      q.Volume,
	}
}

func barsFromTradier(days []tradier.Day) ([]volmodel.Bar, error) {
	bars := make([]volmodel.Bar, 0, len(days))
	for _, d := range days {
		date, err := time.Parse(time.DateOnly, d.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid history date %q: %w", d.Date, err)
		}
		bars = append(bars, volmodel.Bar{
			Date:   date,
			Open:   d.Open,
			High:   d.High,
			Low:    d.Low,
			Close:  d.Close,
			Volume: float64(d.Volume),
		})
	}
	return bars, nil
}

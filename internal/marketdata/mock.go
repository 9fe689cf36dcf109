package marketdata

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonandersen/payoff/internal/volmodel"
)

// MockProvider is an in-memory Provider for tests.
type MockProvider struct {
	mu          sync.Mutex
	expirations map[string][]string
	chains      map[string]*Chain
	quotes      map[string]*Quote
	history     map[string][]volmodel.Bar
	err         error

	// Calls counts requests per method name.
	Calls map[string]int
}

// NewMockProvider creates an empty MockProvider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		expirations: make(map[string][]string),
		chains:      make(map[string]*Chain),
		quotes:      make(map[string]*Quote),
		history:     make(map[string][]volmodel.Bar),
		Calls:       make(map[string]int),
	}
}

// WithExpirations sets the expirations returned for symbol.
func (m *MockProvider) WithExpirations(symbol string, dates ...string) *MockProvider {
	m.expirations[strings.ToUpper(symbol)] = dates
	return m
}

// WithChain sets the chain returned for its symbol and expiration.
func (m *MockProvider) WithChain(chain *Chain) *MockProvider {
	m.chains[strings.ToUpper(chain.Symbol)+"|"+chain.Expiration] = chain
	return m
}

// WithQuote sets the quote returned for symbol.
func (m *MockProvider) WithQuote(symbol string, last float64) *MockProvider {
	m.quotes[strings.ToUpper(symbol)] = &Quote{Symbol: strings.ToUpper(symbol), Last: last}
	return m
}

// WithHistory sets the bars returned for symbol.
func (m *MockProvider) WithHistory(symbol string, bars []volmodel.Bar) *MockProvider {
	m.history[strings.ToUpper(symbol)] = bars
	return m
}

// WithError makes every call fail with err.
func (m *MockProvider) WithError(err error) *MockProvider {
	m.err = err
	return m
}

func (m *MockProvider) record(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[name]++
	return m.err
}

// Expirations implements Provider.
func (m *MockProvider) Expirations(_ context.Context, symbol string) ([]string, error) {
	if err := m.record("Expirations"); err != nil {
		return nil, err
	}
	return m.expirations[strings.ToUpper(symbol)], nil
}

// Chain implements Provider.
func (m *MockProvider) Chain(_ context.Context, symbol, expiration string) (*Chain, error) {
	if err := m.record("Chain"); err != nil {
		return nil, err
	}
	chain, ok := m.chains[strings.ToUpper(symbol)+"|"+expiration]
	if !ok {
		return &Chain{Symbol: strings.ToUpper(symbol), Expiration: expiration}, nil
	}
	return chain, nil
}

// Quote implements Provider.
func (m *MockProvider) Quote(_ context.Context, symbol string) (*Quote, error) {
	if err := m.record("Quote"); err != nil {
		return nil, err
	}
	q, ok := m.quotes[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("no quote for %s", strings.ToUpper(symbol))
	}
	return q, nil
}

// History implements Provider.
func (m *MockProvider) History(_ context.Context, symbol string, _, _ time.Time) ([]volmodel.Bar, error) {
	if err := m.record("History"); err != nil {
		return nil, err
	}
	return m.history[strings.ToUpper(symbol)], nil
}

package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/jonandersen/payoff/internal/volmodel"
	"github.com/jonandersen/payoff/pkg/tradier"
)

// Options tunes the service. Zero values pick the defaults.
type Options struct {
	RequestsPerSecond float64
	CacheTTL          time.Duration
	MaxTries          uint
	InitialBackoff    time.Duration
	Logger            *slog.Logger
}

const (
	defaultRequestsPerSecond = 2
	defaultMaxTries          = 4
	defaultInitialBackoff    = 500 * time.Millisecond
)

// Service implements Provider over the Tradier markets API.
type Service struct {
	client         *tradier.Client
	limiter        *rate.Limiter
	cache          *responseCache
	maxTries       uint
	initialBackoff time.Duration
	logger         *slog.Logger
}

var _ Provider = (*Service)(nil)

// NewService wraps client. A CacheTTL of zero disables caching.
func NewService(client *tradier.Client, opts Options) (*Service, error) {
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	tries := opts.MaxTries
	if tries == 0 {
		tries = defaultMaxTries
	}
	initial := opts.InitialBackoff
	if initial <= 0 {
		initial = defaultInitialBackoff
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cache, err := newResponseCache(opts.CacheTTL)
	if err != nil {
		return nil, err
	}

	return &Service{
		client:         client,
		limiter:        rate.NewLimiter(rate.Limit(rps), 1),
		cache:          cache,
		maxTries:       tries,
		initialBackoff: initial,
		logger:         logger.With("component", "marketdata"),
	}, nil
}

// Close releases the cache.
func (s *Service) Close() error {
	return s.cache.close()
}

// Invalidate drops cached responses for symbol.
func (s *Service) Invalidate(symbol string) error {
	if err := s.cache.invalidate(symbol); err != nil {
		return fmt.Errorf("failed to invalidate cache for %s: %w", symbol, err)
	}
	return nil
}

// Expirations lists the option expiration dates for symbol.
func (s *Service) Expirations(ctx context.Context, symbol string) ([]string, error) {
	return fetch(ctx, s, cacheKey("expirations", symbol), func(ctx context.Context) ([]string, error) {
		return s.client.GetOptionExpirations(ctx, symbol)
	})
}

// Chain returns the option chain for symbol at expiration.
func (s *Service) Chain(ctx context.Context, symbol, expiration string) (*Chain, error) {
	return fetch(ctx, s, cacheKey("chain", symbol, expiration), func(ctx context.Context) (*Chain, error) {
		options, err := s.client.GetOptionChain(ctx, symbol, expiration)
		if err != nil {
			return nil, err
		}
		return chainFromTradier(symbol, expiration, options), nil
	})
}

// Quote returns the latest quote for symbol.
func (s *Service) Quote(ctx context.Context, symbol string) (*Quote, error) {
	return fetch(ctx, s, cacheKey("quote", symbol), func(ctx context.Context) (*Quote, error) {
		quotes, err := s.client.GetQuotes(ctx, []string{symbol})
		if err != nil {
			return nil, err
		}
		for _, q := range quotes {
			if strings.EqualFold(q.Symbol, symbol) {
				return quoteFromTradier(q), nil
			}
		}
		return nil, backoff.Permanent(fmt.Errorf("no quote for %s", strings.ToUpper(symbol)))
	})
}

// History returns daily bars for symbol between start and end inclusive.
func (s *Service) History(ctx context.Context, symbol string, start, end time.Time) ([]volmodel.Bar, error) {
	from, to := start.Format(time.DateOnly), end.Format(time.DateOnly)
	return fetch(ctx, s, cacheKey("history", symbol, from, to), func(ctx context.Context) ([]volmodel.Bar, error) {
		days, err := s.client.GetHistory(ctx, symbol, from, to)
		if err != nil {
			return nil, err
		}
		bars, err := barsFromTradier(days)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return bars, nil
	})
}

// fetch serves key from the cache or calls op under the rate limiter,
// retrying transient failures with exponential backoff.
func fetch[T any](ctx context.Context, s *Service, key string, op func(context.Context) (T, error)) (T, error) {
	var result T
	if s.cache.get(key, &result) {
		s.logger.Debug("cache hit", "key", key)
		return result, nil
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		var zero T
		if err := s.limiter.Wait(ctx); err != nil {
			return zero, backoff.Permanent(err)
		}

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if !retryable(err) {
			return zero, backoff.Permanent(err)
		}
		s.logger.Warn("request failed, retrying", "key", key, "attempt", attempt, "error", err)
		return zero, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialBackoff
	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.maxTries),
	)
	if err != nil {
		return result, err
	}

	if err := s.cache.set(key, result); err != nil {
		s.logger.Warn("failed to cache response", "key", key, "error", err)
	}
	return result, nil
}

// retryable reports whether err is a rate limit, a server error or a
// network failure.
func retryable(err error) bool {
	var apiErr *tradier.APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

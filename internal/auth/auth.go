// Package auth resolves and validates the market data API token.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonandersen/payoff/pkg/tradier"
)

// ErrInvalidToken is returned when the API rejects a token.
var ErrInvalidToken = errors.New("token rejected by the API")

// Verify checks that token is accepted by the API at baseURL.
func Verify(ctx context.Context, baseURL, token string) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	client := tradier.NewClientWithToken(baseURL, token)
	if err := client.GetUserProfile(ctx); err != nil {
		var apiErr *tradier.APIError
		if errors.As(err, &apiErr) && (apiErr.IsUnauthorized() || apiErr.StatusCode == 403) {
			return fmt.Errorf("%w: %s", ErrInvalidToken, apiErr.Message)
		}
		return fmt.Errorf("failed to verify token: %w", err)
	}
	return nil
}

package tradier

import (
	"context"
	"fmt"
	"strings"
)

// GetOptionExpirations retrieves the option expiration dates for a symbol.
func (c *Client) GetOptionExpirations(ctx context.Context, symbol string) ([]string, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	resp, err := c.GetWithParams(ctx, "/v1/markets/options/expirations", map[string]string{
		"symbol":          strings.ToUpper(symbol),
		"includeAllRoots": "true",
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var result ExpirationsResponse
	if err := DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	return result.Dates(), nil
}

// GetOptionChain retrieves every contract for a symbol and expiration date
// (YYYY-MM-DD), including greeks.
func (c *Client) GetOptionChain(ctx context.Context, symbol, expiration string) ([]Option, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if expiration == "" {
		return nil, fmt.Errorf("expiration is required")
	}

	resp, err := c.GetWithParams(ctx, "/v1/markets/options/chains", map[string]string{
		"symbol":     strings.ToUpper(symbol),
		"expiration": expiration,
		"greeks":     "true",
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var result ChainResponse
	if err := DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	return result.Contracts(), nil
}

// GetQuotes retrieves quotes for the given symbols. Unknown symbols are
// silently dropped by the API.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) ([]Quote, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}

	upper := make([]string, len(symbols))
	for i, s := range symbols {
		upper[i] = strings.ToUpper(s)
	}

	resp, err := c.GetWithParams(ctx, "/v1/markets/quotes", map[string]string{
		"symbols": strings.Join(upper, ","),
		"greeks":  "false",
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var result QuotesResponse
	if err := DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	if result.Quotes == nil {
		return nil, nil
	}
	return result.Quotes.Quote, nil
}

// GetHistory retrieves daily bars for a symbol between start and end
// (inclusive, YYYY-MM-DD).
func (c *Client) GetHistory(ctx context.Context, symbol, start, end string) ([]Day, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	params := map[string]string{
		"symbol":   strings.ToUpper(symbol),
		"interval": "daily",
	}
	if start != "" {
		params["start"] = start
	}
	if end != "" {
		params["end"] = end
	}

	resp, err := c.GetWithParams(ctx, "/v1/markets/history", params)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var result HistoryResponse
	if err := DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	return result.Days(), nil
}

// GetUserProfile calls the profile endpoint. It is used only to check
// that a token is accepted.
func (c *Client) GetUserProfile(ctx context.Context) error {
	resp, err := c.Get(ctx, "/v1/user/profile")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return CheckResponse(resp)
}

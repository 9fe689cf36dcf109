// Package tradier provides a Go client for the Tradier market data API.
//
// Only the read-only market data endpoints needed to price option
// strategies are covered: expirations, chains, quotes and daily history.
package tradier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://api.tradier.com"

	// SandboxBaseURL is the delayed-data sandbox endpoint.
	SandboxBaseURL = "https://sandbox.tradier.com"
)

// TokenProvider is an interface for obtaining the API access token.
type TokenProvider interface {
	// Token returns the bearer token to send with each request.
	Token() (string, error)
}

// StaticToken is a TokenProvider that always returns the same token.
type StaticToken string

// Token implements TokenProvider.
func (s StaticToken) Token() (string, error) {
	return string(s), nil
}

// Client handles HTTP requests to the Tradier API.
type Client struct {
	BaseURL       string
	TokenProvider TokenProvider
	HTTPClient    *http.Client
}

// NewClient creates a new API client with the given base URL and token provider.
func NewClient(baseURL string, tokenProvider TokenProvider) *Client {
	return &Client{
		BaseURL:       strings.TrimSuffix(baseURL, "/"),
		TokenProvider: tokenProvider,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithToken creates a new API client with a static token.
func NewClientWithToken(baseURL, token string) *Client {
	return NewClient(baseURL, StaticToken(token))
}

// Get performs a GET request to the specified path.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path)
}

// GetWithParams performs a GET request to the specified path with query parameters.
func (c *Client) GetWithParams(ctx context.Context, path string, params map[string]string) (*http.Response, error) {
	if len(params) > 0 {
		query := url.Values{}
		for k, v := range params {
			query.Set(k, v)
		}
		path = path + "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path)
}

// do performs a single HTTP request with auth and accept headers.
func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	token := ""
	if c.TokenProvider != nil {
		var err error
		token, err = c.TokenProvider.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to get token: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

package tradier

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError represents an error response from the Tradier API.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, msg)
}

// IsNotFound returns true if the error is a 404 Not Found.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the error is a 401 Unauthorized.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsRateLimited returns true if the API throttled the request.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsRetryable reports whether repeating the request may succeed.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited() || e.StatusCode >= http.StatusInternalServerError
}

// errorResponse covers the two JSON error shapes the API returns.
type errorResponse struct {
	Fault struct {
		FaultString string `json:"faultstring"`
	} `json:"fault"`
	Errors struct {
		Error any `json:"error"`
	} `json:"errors"`
}

// CheckResponse checks the API response for errors.
// Non-2xx responses are turned into an *APIError. The body may be JSON
// or, for auth failures, a bare text message.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}

	switch {
	case errResp.Fault.FaultString != "":
		apiErr.Message = errResp.Fault.FaultString
	case errResp.Errors.Error != nil:
		switch v := errResp.Errors.Error.(type) {
		case string:
			apiErr.Message = v
		case []any:
			parts := make([]string, 0, len(v))
			for _, p := range v {
				parts = append(parts, fmt.Sprint(p))
			}
			apiErr.Message = strings.Join(parts, "; ")
		}
	}

	return apiErr
}

// DecodeJSON decodes a JSON response body into the given target.
func DecodeJSON(resp *http.Response, target any) error {
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

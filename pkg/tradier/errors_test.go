package tradier

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name:     "with message",
			err:      &APIError{StatusCode: 400, Message: "Invalid parameter"},
			expected: "API error (400): Invalid parameter",
		},
		{
			name:     "without message uses status text",
			err:      &APIError{StatusCode: 404},
			expected: "API error (404): Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAPIError_StatusChecks(t *testing.T) {
	tests := []struct {
		name           string
		statusCode     int
		isNotFound     bool
		isUnauthorized bool
		isRateLimited  bool
		isRetryable    bool
	}{
		{"404", 404, true, false, false, false},
		{"401", 401, false, true, false, false},
		{"429", 429, false, false, true, true},
		{"500", 500, false, false, false, true},
		{"503", 503, false, false, false, true},
		{"400", 400, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &APIError{StatusCode: tt.statusCode}
			assert.Equal(t, tt.isNotFound, err.IsNotFound())
			assert.Equal(t, tt.isUnauthorized, err.IsUnauthorized())
			assert.Equal(t, tt.isRateLimited, err.IsRateLimited())
			assert.Equal(t, tt.isRetryable, err.IsRetryable())
		})
	}
}

func newResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestCheckResponse(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
		message string
	}{
		{name: "ok", status: 200, body: `{}`},
		{name: "plain text", status: 401, body: "Invalid Access Token\n", wantErr: true, message: "Invalid Access Token"},
		{name: "fault", status: 400, body: `{"fault":{"faultstring":"Rate limit exceeded"}}`, wantErr: true, message: "Rate limit exceeded"},
		{name: "errors string", status: 400, body: `{"errors":{"error":"Bad symbol"}}`, wantErr: true, message: "Bad symbol"},
		{name: "errors list", status: 400, body: `{"errors":{"error":["a","b"]}}`, wantErr: true, message: "a; b"},
		{name: "empty body", status: 500, body: "", wantErr: true, message: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckResponse(newResponse(tt.status, tt.body))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			apiErr, ok := err.(*APIError)
			require.True(t, ok, "error should be *APIError")
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

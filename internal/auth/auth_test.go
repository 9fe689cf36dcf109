package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/user/profile", r.URL.Path)
		assert.Equal(t, "Bearer good-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"profile":{"id":"abc"}}`))
	}))
	defer server.Close()

	require.NoError(t, Verify(context.Background(), server.URL, "good-token"))
}

func TestVerify_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("Invalid Access Token"))
	}))
	defer server.Close()

	err := Verify(context.Background(), server.URL, "bad-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Contains(t, err.Error(), "Invalid Access Token")
}

func TestVerify_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := Verify(context.Background(), server.URL, "token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidToken)
	assert.Contains(t, err.Error(), "failed to verify token")
}

func TestVerify_EmptyToken(t *testing.T) {
	err := Verify(context.Background(), "http://unused", "")
	require.Error(t, err)
}

package keyring

import (
	"errors"
	"net/url"
	"os"
	"strings"

	gokeyring "github.com/zalando/go-keyring"
)

const (
	// ServiceName is the keyring service name for storing secrets.
	ServiceName = "com.jonandersen.payoff"

	// KeyAPIToken prefixes the keyring keys of market data API tokens.
	KeyAPIToken = "tradier_token"

	// EnvAPIToken overrides keyring lookups for CI/headless environments.
	EnvAPIToken = "PAYOFF_TRADIER_TOKEN"
)

// ErrNotFound is returned when a secret is not found in the keyring.
var ErrNotFound = errors.New("secret not found")

// TokenKey returns the key holding the token for the API at baseURL.
// Sandbox and production accounts use different tokens, so every host
// gets its own entry.
func TokenKey(baseURL string) string {
	host := strings.TrimSpace(baseURL)
	if u, err := url.Parse(host); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ToLower(strings.TrimSuffix(host, "/"))
	if host == "" {
		return KeyAPIToken
	}
	return KeyAPIToken + "@" + host
}

// IsTokenKey reports whether key was produced by TokenKey.
func IsTokenKey(key string) bool {
	return key == KeyAPIToken || strings.HasPrefix(key, KeyAPIToken+"@")
}

// Store provides an interface for secure secret storage.
type Store interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// SystemStore implements Store using the system keyring.
type SystemStore struct{}

// NewSystemStore creates a new system keyring store.
func NewSystemStore() *SystemStore {
	return &SystemStore{}
}

// Get retrieves a secret from the system keyring.
func (s *SystemStore) Get(service, key string) (string, error) {
	secret, err := gokeyring.Get(service, key)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return secret, nil
}

// Set stores a secret in the system keyring.
func (s *SystemStore) Set(service, key, value string) error {
	return gokeyring.Set(service, key, value)
}

// Delete removes a secret from the system keyring. Deleting a missing
// secret is not an error.
func (s *SystemStore) Delete(service, key string) error {
	err := gokeyring.Delete(service, key)
	if err != nil && errors.Is(err, gokeyring.ErrNotFound) {
		return nil
	}
	return err
}

// EnvStore wraps another Store and checks the environment first for API
// tokens, so a .env file or CI secret can stand in for the keyring. The
// variable applies to every host.
type EnvStore struct {
	underlying Store
}

// NewEnvStore creates a new EnvStore wrapping the given store.
func NewEnvStore(underlying Store) *EnvStore {
	return &EnvStore{underlying: underlying}
}

// Get retrieves a secret, checking the env var first for token lookups.
func (e *EnvStore) Get(service, key string) (string, error) {
	if IsTokenKey(key) {
		if envVal := strings.TrimSpace(os.Getenv(EnvAPIToken)); envVal != "" {
			return envVal, nil
		}
	}
	return e.underlying.Get(service, key)
}

// Set stores a secret in the underlying store.
func (e *EnvStore) Set(service, key, value string) error {
	return e.underlying.Set(service, key, value)
}

// Delete removes a secret from the underlying store.
func (e *EnvStore) Delete(service, key string) error {
	return e.underlying.Delete(service, key)
}

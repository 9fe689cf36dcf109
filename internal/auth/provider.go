package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jonandersen/payoff/internal/keyring"
)

// ErrNotConfigured is returned when no token is stored anywhere.
var ErrNotConfigured = errors.New("CLI not configured. Run: payoff configure (or set " + keyring.EnvAPIToken + ")")

// KeyringProvider implements tradier.TokenProvider on top of a keyring
// Store. The token is read once and then reused.
type KeyringProvider struct {
	store   keyring.Store
	baseURL string

	once  sync.Once
	token string
	err   error
}

// NewKeyringProvider creates a provider reading the token for baseURL from store.
func NewKeyringProvider(store keyring.Store, baseURL string) *KeyringProvider {
	return &KeyringProvider{store: store, baseURL: baseURL}
}

// Token returns the stored API token.
func (p *KeyringProvider) Token() (string, error) {
	p.once.Do(func() {
		p.token, p.err = LookupToken(p.store, p.baseURL)
	})
	return p.token, p.err
}

// LookupToken reads the API token for baseURL from store.
func LookupToken(store keyring.Store, baseURL string) (string, error) {
	token, err := store.Get(keyring.ServiceName, keyring.TokenKey(baseURL))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotConfigured
		}
		return "", fmt.Errorf("failed to retrieve token: %w", err)
	}
	if token == "" {
		return "", ErrNotConfigured
	}
	return token, nil
}

package keyring

import (
	"sort"
	"strings"
	"sync"
)

// MockStore is an in-memory Store for tests. Each operation can be
// made to fail via the With*Error helpers.
type MockStore struct {
	mu      sync.Mutex
	secrets map[string]string
	errs    map[string]error
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		secrets: make(map[string]string),
		errs:    make(map[string]error),
	}
}

func mockKey(service, key string) string {
	return service + "/" + key
}

// Get implements Store.
func (m *MockStore) Get(service, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["get"]; err != nil {
		return "", err
	}
	v, ok := m.secrets[mockKey(service, key)]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements Store.
func (m *MockStore) Set(service, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["set"]; err != nil {
		return err
	}
	m.secrets[mockKey(service, key)] = value
	return nil
}

// Delete implements Store.
func (m *MockStore) Delete(service, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["delete"]; err != nil {
		return err
	}
	delete(m.secrets, mockKey(service, key))
	return nil
}

// WithGetError makes Get fail with err.
func (m *MockStore) WithGetError(err error) *MockStore {
	m.errs["get"] = err
	return m
}

// WithSetError makes Set fail with err.
func (m *MockStore) WithSetError(err error) *MockStore {
	m.errs["set"] = err
	return m
}

// WithDeleteError makes Delete fail with err.
func (m *MockStore) WithDeleteError(err error) *MockStore {
	m.errs["delete"] = err
	return m
}

// WithToken pre-populates the API token for baseURL.
func (m *MockStore) WithToken(baseURL, token string) *MockStore {
	m.secrets[mockKey(ServiceName, TokenKey(baseURL))] = token
	return m
}

// Keys lists the stored keys for service.
func (m *MockStore) Keys(service string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.secrets {
		if rest, ok := strings.CutPrefix(k, service+"/"); ok {
			keys = append(keys, rest)
		}
	}
	sort.Strings(keys)
	return keys
}

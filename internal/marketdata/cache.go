package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
)

const keySep = "|"

// responseCache stores JSON-encoded responses for a fixed TTL.
// A nil cache is valid and never hits.
type responseCache struct {
	store *bigcache.BigCache
}

func newResponseCache(ttl time.Duration) (*responseCache, error) {
	if ttl <= 0 {
		return nil, nil
	}

	config := bigcache.DefaultConfig(ttl)
	config.Shards = 16
	config.MaxEntriesInWindow = 1024
	config.MaxEntrySize = 4096
	config.CleanWindow = ttl
	config.Verbose = false

	store, err := bigcache.New(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &responseCache{store: store}, nil
}

func cacheKey(kind, symbol string, parts ...string) string {
	return strings.Join(append([]string{kind, strings.ToUpper(symbol)}, parts...), keySep)
}

func (c *responseCache) get(key string, target any) bool {
	if c == nil {
		return false
	}
	data, err := c.store.Get(key)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, target) == nil
}

func (c *responseCache) set(key string, value any) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.store.Set(key, data)
}

// invalidate removes every entry cached for symbol.
func (c *responseCache) invalidate(symbol string) error {
	if c == nil {
		return nil
	}

	symbol = strings.ToUpper(symbol)
	var keys []string
	it := c.store.Iterator()
	for it.SetNext() {
		entry, err := it.Value()
		if err != nil {
			continue
		}
		parts := strings.Split(entry.Key(), keySep)
		if len(parts) > 1 && parts[1] == symbol {
			keys = append(keys, entry.Key())
		}
	}

	for _, key := range keys {
		if err := c.store.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
			return err
		}
	}
	return nil
}

func (c *responseCache) close() error {
	if c == nil {
		return nil
	}
	return c.store.Close()
}

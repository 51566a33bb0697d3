package cache

import (
	"context"
	"sync"
	"time"
)

// TokenCache stores short-lived partner access tokens keyed by provider name.
// Implementations must treat a token whose expiry is within the skew margin
// as already expired so callers never send a token about to lapse.
type TokenCache interface {
	// Get returns the cached token for the key, or ("", false) when absent or expired.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores a token that becomes invalid at expiresAt.
	Set(ctx context.Context, key, token string, expiresAt time.Time) error
	// Invalidate drops a token before its natural expiry (e.g. after a 401).
	Invalidate(ctx context.Context, key string) error
}

// ExpirySkew is subtracted from every token lifetime so a token is refreshed
// shortly before the issuer would reject it.
const ExpirySkew = 30 * time.Second

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryTokenCache is an in-process TokenCache for single-instance deployments
type MemoryTokenCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryTokenCache creates an empty in-memory token cache
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryTokenCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if !c.now().Before(entry.expiresAt.Add(-ExpirySkew)) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", false, nil
	}
	return entry.token, true, nil
}

func (c *MemoryTokenCache) Set(_ context.Context, key, token string, expiresAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{token: token, expiresAt: expiresAt}
	return nil
}

func (c *MemoryTokenCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

var _ TokenCache = (*MemoryTokenCache)(nil)

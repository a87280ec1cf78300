package application

import (
	"context"
	"sync"
	"time"
)

// ProfileCache keeps recently loaded profiles keyed by identity id.
type ProfileCache interface {
	Get(ctx context.Context, userID string) (User, bool, error)
	Set(ctx context.Context, user User) error
	Invalidate(ctx context.Context, userID string) error
}

// memoryProfileCache is the in-process ProfileCache used when no Redis is configured.
type memoryProfileCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]profileCacheEntry
}

type profileCacheEntry struct {
	user      User
	expiresAt time.Time
}

// NewMemoryProfileCache returns an in-memory TTL cache.
func NewMemoryProfileCache(ttl time.Duration, maxEntries int, now func() time.Time) ProfileCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	if now == nil {
		now = time.Now
	}
	return &memoryProfileCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]profileCacheEntry),
	}
}

func (c *memoryProfileCache) Get(ctx context.Context, userID string) (User, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return User{}, false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, userID)
		c.mu.Unlock()
		return User{}, false, nil
	}
	return entry.user, true, nil
}

func (c *memoryProfileCache) Set(ctx context.Context, user User) error {
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if _, exists := c.entries[user.ID]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[user.ID] = profileCacheEntry{user: user, expiresAt: expiry}
	return nil
}

func (c *memoryProfileCache) Invalidate(ctx context.Context, userID string) error {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
	return nil
}

func (c *memoryProfileCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *memoryProfileCache) evictOneLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

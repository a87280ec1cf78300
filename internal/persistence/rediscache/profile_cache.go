package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/roombooking/internal/persistence"
)

const keyPrefix = "roombooking:profile:"

// Commands is the subset of the Redis client used by the cache.
type Commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ProfileCache keeps user profiles in Redis with a fixed TTL.
type ProfileCache struct {
	client Commands
	ttl    time.Duration
}

// NewProfileCache builds a cache; a non-positive ttl stores entries without expiry.
func NewProfileCache(client Commands, ttl time.Duration) *ProfileCache {
	if ttl < 0 {
		ttl = 0
	}
	return &ProfileCache{client: client, ttl: ttl}
}

type cachedProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Get returns the cached profile and whether it was present.
func (c *ProfileCache) Get(ctx context.Context, userID string) (persistence.User, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return persistence.User{}, false, nil
	}
	if err != nil {
		return persistence.User{}, false, fmt.Errorf("rediscache: get profile %s: %w", userID, err)
	}

	var cached cachedProfile
	if err := json.Unmarshal(raw, &cached); err != nil {
		return persistence.User{}, false, fmt.Errorf("rediscache: decode profile %s: %w", userID, err)
	}
	return persistence.User{
		ID:        cached.ID,
		Email:     cached.Email,
		Name:      cached.Name,
		Role:      cached.Role,
		CreatedAt: cached.CreatedAt,
	}, true, nil
}

// Set stores a profile.
func (c *ProfileCache) Set(ctx context.Context, user persistence.User) error {
	raw, err := json.Marshal(cachedProfile{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("rediscache: encode profile %s: %w", user.ID, err)
	}
	if err := c.client.Set(ctx, keyPrefix+user.ID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("rediscache: set profile %s: %w", user.ID, err)
	}
	return nil
}

// Invalidate drops a profile.
func (c *ProfileCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, keyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("rediscache: delete profile %s: %w", userID, err)
	}
	return nil
}

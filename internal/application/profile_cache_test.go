package application

import (
	"context"
	"testing"
	"time"
)

func TestMemoryProfileCache(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and expires entries", func(t *testing.T) {
		current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		cache := NewMemoryProfileCache(time.Second, 4, func() time.Time { return current })

		if err := cache.Set(ctx, User{ID: "u1", Name: "Olena"}); err != nil {
			t.Fatalf("Set returned error: %v", err)
		}
		user, ok, err := cache.Get(ctx, "u1")
		if err != nil || !ok {
			t.Fatalf("expected cache hit, got ok=%v err=%v", ok, err)
		}
		if user.Name != "Olena" {
			t.Fatalf("expected cached name, got %q", user.Name)
		}

		current = current.Add(2 * time.Second)
		if _, ok, _ := cache.Get(ctx, "u1"); ok {
			t.Fatalf("expected cache entry to expire")
		}
	})

	t.Run("invalidates a single user", func(t *testing.T) {
		cache := NewMemoryProfileCache(time.Minute, 4, nil)
		_ = cache.Set(ctx, User{ID: "u1"})
		_ = cache.Set(ctx, User{ID: "u2"})

		if err := cache.Invalidate(ctx, "u1"); err != nil {
			t.Fatalf("Invalidate returned error: %v", err)
		}
		if _, ok, _ := cache.Get(ctx, "u1"); ok {
			t.Fatalf("expected u1 to be gone")
		}
		if _, ok, _ := cache.Get(ctx, "u2"); !ok {
			t.Fatalf("expected u2 to survive")
		}
	})

	t.Run("evicts the entry closest to expiry when full", func(t *testing.T) {
		current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		cache := NewMemoryProfileCache(time.Minute, 2, func() time.Time { return current })

		_ = cache.Set(ctx, User{ID: "old"})
		current = current.Add(time.Second)
		_ = cache.Set(ctx, User{ID: "mid"})
		current = current.Add(time.Second)
		_ = cache.Set(ctx, User{ID: "new"})

		if _, ok, _ := cache.Get(ctx, "old"); ok {
			t.Fatalf("expected oldest entry to be evicted")
		}
		if _, ok, _ := cache.Get(ctx, "new"); !ok {
			t.Fatalf("expected newest entry to be cached")
		}
	})
}

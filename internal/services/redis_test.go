package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// A nil cache means the deployment runs without Redis; every cache
// operation must degrade gracefully instead of dereferencing the client.
func TestNilCacheDegradesToNoop(t *testing.T) {
	var cache *RedisCache
	ctx := context.Background()

	if err := cache.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Errorf("Set on nil cache = %v, want nil", err)
	}
	var out string
	if err := cache.Get(ctx, "k", &out); !errors.Is(err, redis.Nil) {
		t.Errorf("Get on nil cache = %v, want redis.Nil", err)
	}
	if err := cache.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete on nil cache = %v, want nil", err)
	}
}

func TestGetOrSetWithoutCacheCallsFetcher(t *testing.T) {
	var cache *RedisCache
	calls := 0

	got, err := GetOrSet(cache, context.Background(), "fee-structure:1:5", time.Minute, func() (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("GetOrSet() error = %v", err)
	}
	if got != 42 {
		t.Errorf("GetOrSet() = %d, want 42", got)
	}
	if calls != 1 {
		t.Errorf("fetcher called %d times, want 1", calls)
	}

	wantErr := errors.New("db down")
	if _, err := GetOrSet(cache, context.Background(), "fee-structure:1:5", time.Minute, func() (int, error) {
		return 0, wantErr
	}); !errors.Is(err, wantErr) {
		t.Errorf("GetOrSet() error = %v, want %v", err, wantErr)
	}
}

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

func TestCacheSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "account:acc-1", []byte(`{"id":"acc-1"}`), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	val, err := cache.Get(ctx, "account:acc-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if string(val) != `{"id":"acc-1"}` {
		t.Fatalf("unexpected value: %s", val)
	}

	// Keys are namespaced so unrelated users of the same Redis cannot clash.
	if !mr.Exists("ledger:cache:account:acc-1") {
		t.Fatal("expected prefixed key in redis")
	}
}

func TestCacheGetMissing(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	cache := NewCache(client)

	if _, err := cache.Get(context.Background(), "nope"); !errors.Is(err, redislib.Nil) {
		t.Fatalf("expected redis.Nil, got %v", err)
	}
}

func TestCacheDelete(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if err := cache.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := cache.Get(ctx, "k"); !errors.Is(err, redislib.Nil) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "k", []byte("v"), time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	mr.FastForward(2 * time.Second)

	if _, err := cache.Get(ctx, "k"); !errors.Is(err, redislib.Nil) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

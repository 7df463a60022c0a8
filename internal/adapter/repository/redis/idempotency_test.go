package redis

import (
	"context"
	"testing"
	"time"
)

func TestIdempotencyStoreFirstClaim(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	exists, cached, err := store.CheckAndSet(ctx, "key-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if exists || cached != nil {
		t.Fatalf("first claim should not exist, got exists=%v cached=%s", exists, cached)
	}

	// A second caller sees the in-flight marker.
	exists, cached, err = store.CheckAndSet(ctx, "key-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if !exists || string(cached) != "processing" {
		t.Fatalf("expected in-flight marker, got exists=%v cached=%s", exists, cached)
	}
}

func TestIdempotencyStoreUpdateAndReplay(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "key-1", nil, time.Minute); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	response := []byte(`{"id":"txn-1","status":"pending"}`)
	if err := store.Update(ctx, "key-1", response, time.Minute); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	exists, cached, err := store.CheckAndSet(ctx, "key-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if !exists || string(cached) != string(response) {
		t.Fatalf("expected stored response, got exists=%v cached=%s", exists, cached)
	}
}

func TestIdempotencyStoreKeysAreIndependent(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "key-1", nil, time.Minute); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	exists, _, err := store.CheckAndSet(ctx, "key-2", nil, time.Minute)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if exists {
		t.Fatal("second key must get its own claim")
	}
}

func TestIdempotencyStoreExpiry(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "key-1", nil, time.Second); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	mr.FastForward(2 * time.Second)

	exists, _, err := store.CheckAndSet(ctx, "key-1", nil, time.Second)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if exists {
		t.Fatal("expired key must be claimable again")
	}
}

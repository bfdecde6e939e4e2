package cache

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return mr, client, cleanup
}

func TestRedisMediaCache_SetGet(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisMediaCache(client, nil)
	ctx := context.Background()

	payload := []byte{0x00, 0x01, 0x02, 0xff, 0xfe}
	if err := cache.Set(ctx, "abc.mp4", payload, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got := cache.Get(ctx, "abc.mp4")
	if !bytes.Equal(got, payload) {
		t.Errorf("Get() = %v, want %v", got, payload)
	}

	if !cache.Exists(ctx, "abc.mp4") {
		t.Error("Exists() = false, want true")
	}
}

func TestRedisMediaCache_Get_CacheMiss(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisMediaCache(client, nil)
	ctx := context.Background()

	if got := cache.Get(ctx, "missing.mp4"); got != nil {
		t.Errorf("expected nil for cache miss, got %v", got)
	}
	if cache.Exists(ctx, "missing.mp4") {
		t.Error("Exists() = true for missing key")
	}
}

func TestRedisMediaCache_TTLExpiry(t *testing.T) {
	mr, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisMediaCache(client, nil)
	ctx := context.Background()

	if err := cache.Set(ctx, "ttl.mp4", []byte("data"), 60*time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if ttl := mr.TTL("media:ttl.mp4"); ttl != 60*time.Second {
		t.Errorf("TTL = %v, want 60s", ttl)
	}

	mr.FastForward(61 * time.Second)

	if cache.Exists(ctx, "ttl.mp4") {
		t.Error("entry should have expired")
	}
	if got := cache.Get(ctx, "ttl.mp4"); got != nil {
		t.Errorf("Get() after expiry = %v, want nil", got)
	}
}

func TestRedisMediaCache_BackendDown(t *testing.T) {
	mr, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisMediaCache(client, nil)
	ctx := context.Background()

	if err := cache.Set(ctx, "abc.mp4", []byte("data"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.Close()

	if cache.Exists(ctx, "abc.mp4") {
		t.Error("Exists() should resolve to false when redis is down")
	}
	if got := cache.Get(ctx, "abc.mp4"); got != nil {
		t.Errorf("Get() should resolve to nil when redis is down, got %v", got)
	}
	if err := cache.Set(ctx, "abc.mp4", []byte("data"), time.Minute); err == nil {
		t.Error("Set() should fail when redis is down")
	}
}

func TestRedisMediaCache_Overwrite(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisMediaCache(client, nil)
	ctx := context.Background()

	_ = cache.Set(ctx, "abc.mp4", []byte("first"), time.Minute)
	_ = cache.Set(ctx, "abc.mp4", []byte("second"), time.Minute)

	if got := cache.Get(ctx, "abc.mp4"); string(got) != "second" {
		t.Errorf("Get() = %q, want %q", got, "second")
	}
}

func TestRedisMediaCache_Ping(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisMediaCache(client, nil)
	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestRedisMediaCache_buildKey(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisMediaCache(client, nil)

	key := cache.buildKey("550e8400-e29b-41d4-a716-446655440000.mp4")
	expected := "media:550e8400-e29b-41d4-a716-446655440000.mp4"

	if key != expected {
		t.Errorf("buildKey() = %v, want %v", key, expected)
	}
}

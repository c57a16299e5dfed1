package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	val, ok, err := store.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(val) != "v" {
		t.Fatalf("unexpected value %q", val)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), 30*time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	now = now.Add(29 * time.Minute)
	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Fatalf("entry should survive before TTL")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatalf("entry should expire after TTL")
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	_ = store.Set(ctx, "k", []byte("v"), 0)
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatalf("deleted entry should be gone")
	}
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	_ = store.Set(ctx, "k", []byte("v"), 0)
	now = now.Add(48 * time.Hour)
	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Fatalf("zero-TTL entry should not expire")
	}
}

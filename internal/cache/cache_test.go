package cache

import (
	"strings"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("price", "bitcoin", "01-01-2024")
	b := CacheKey("price", "bitcoin", "01-01-2024")
	c := CacheKey("price", "bitcoin01-01-2024")

	if a != b {
		t.Error("Expected identical parts to produce identical keys")
	}
	if a == c {
		t.Error("Expected part boundaries to matter")
	}
	if !strings.HasPrefix(a, "miner:v1:") {
		t.Errorf("Expected miner:v1: prefix, got %s", a)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss for unknown key")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, ok := c.Get("k")
	if !ok || string(val) != "v" {
		t.Errorf("Expected v, got %q (found=%v)", val, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 item, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("Expected entry to expire")
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := c.Set("coins", []byte(`{"btc":"bitcoin"}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	reopened := NewDiskCache(dir, time.Hour)
	val, ok := reopened.Get("coins")
	if !ok || string(val) != `{"btc":"bitcoin"}` {
		t.Errorf("Expected persisted value, got %q (found=%v)", val, ok)
	}

	// expire by moving the clock forward
	reopened.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, ok := reopened.Get("coins"); ok {
		t.Error("Expected expired entry to be a miss")
	}

	if err := c.Delete("coins"); err != nil {
		t.Errorf("Expected delete of removed entry to succeed, got %v", err)
	}
}

func TestLayeredCache_PromotesBackHits(t *testing.T) {
	front := NewMemoryCache(time.Minute, time.Minute)
	back := NewDiskCache(t.TempDir(), time.Hour)
	c := NewLayered(front, back)

	_ = back.Set("k", []byte("v"), 0)

	if _, ok := front.Get("k"); ok {
		t.Fatal("Expected front layer to be empty")
	}
	val, ok := c.Get("k")
	if !ok || string(val) != "v" {
		t.Fatalf("Expected layered hit, got %q", val)
	}
	if _, ok := front.Get("k"); !ok {
		t.Error("Expected back-layer hit to be promoted")
	}

	_ = c.Clear()
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after clear")
	}
}

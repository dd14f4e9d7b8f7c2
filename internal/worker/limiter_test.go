package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("expected unlimited limiter to allow request %d", i)
		}
	}
}

func TestLimiter_WaitURL(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.WaitURL(ctx, "http://api.coingecko.com/api/v3/ping"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if limiter.Len() != 1 {
		t.Errorf("expected 1 tracked host, got %d", limiter.Len())
	}

	// Same host shares the limiter
	if err := limiter.WaitURL(ctx, "http://api.coingecko.com/api/v3/simple/price"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if limiter.Len() != 1 {
		t.Errorf("expected 1 tracked host, got %d", limiter.Len())
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	_ = limiter.Allow("slow")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "slow"); err == nil {
		t.Error("expected wait to fail when the context expires first")
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	// 1 rps, burst 1
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	key := "192.168.1.10"

	if err := limiter.Wait(ctx, key); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// burst 1 means the token is consumed
	if limiter.Allow(key) {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	if !limiter.Allow("192.168.1.11") {
		t.Errorf("expected allow for other key")
	}
}

func TestLimiter_SetRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	key := "pro-api.coingecko.com"

	limiter.SetRate(key, 0.1, 1)

	if !limiter.Allow(key) {
		t.Errorf("first request should pass")
	}
	if limiter.Allow(key) {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("api.subnet90.com") {
		t.Errorf("other key should pass")
	}
}

func TestHostKey(t *testing.T) {
	host, err := HostKey("http://example.com/foo")
	if err != nil {
		t.Fatalf("HostKey failed: %v", err)
	}
	if host != "example.com" {
		t.Errorf("expected example.com, got %s", host)
	}

	_, err = HostKey("::invalid")
	if err == nil {
		t.Errorf("expected error for invalid URL")
	}
}

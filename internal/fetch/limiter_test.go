package fetch

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
	if l2.defaultBurst != 1 {
		t.Errorf("expected default burst 1 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://example.com/foo"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "http://other.org"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_SharesBudgetAcrossSubdomains(t *testing.T) {
	limiter := NewLimiter(0.001, 1)

	if !limiter.Allow("https://www.example.com/a") {
		t.Fatal("first request should be allowed")
	}
	if limiter.Allow("https://trails.example.com/b") {
		t.Error("subdomain should share the exhausted budget")
	}
	if !limiter.Allow("https://example.org/") {
		t.Error("unrelated domain should have its own budget")
	}
}

func TestLimiter_ZeroRateIsUnlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 20; i++ {
		if !limiter.Allow("https://example.com") {
			t.Fatalf("request %d was limited", i)
		}
	}
}

func TestLimiter_ApplyCrawlDelay(t *testing.T) {
	limiter := NewLimiter(100, 5)
	limiter.ApplyCrawlDelay("https://example.com", time.Hour)

	if !limiter.Allow("https://example.com/a") {
		t.Fatal("first request after crawl delay should be allowed")
	}
	if limiter.Allow("https://example.com/b") {
		t.Error("second request should wait for the crawl delay")
	}
}

func TestLimiter_ContextCancelled(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	ctx, cancel := context.WithCancel(context.Background())
	_ = limiter.Wait(ctx, "https://example.com")
	cancel()
	if err := limiter.Wait(ctx, "https://example.com"); err == nil {
		t.Error("expected cancelled wait to fail")
	}
}

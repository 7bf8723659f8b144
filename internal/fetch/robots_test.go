package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRobotsChecker(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			hits.Add(1)
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\nCrawl-delay: 2\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := NewRobotsChecker("Wayfind/0.1 (+https://example.com)", 5*time.Second)
	ctx := context.Background()

	allowed, delay, err := r.CanFetch(ctx, server.URL+"/trails/lake")
	if err != nil || !allowed {
		t.Fatalf("Expected /trails to be allowed, got %v %v", allowed, err)
	}
	if delay != 2*time.Second {
		t.Errorf("Expected crawl delay 2s, got %v", delay)
	}
	if r.IsAllowed(ctx, server.URL+"/private/page") {
		t.Error("Expected /private to be disallowed")
	}
	if hits.Load() != 1 {
		t.Errorf("Expected robots.txt to be fetched once, got %d", hits.Load())
	}
}

func TestRobotsChecker_MissingFileAllows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	r := NewRobotsChecker("Wayfind", 5*time.Second)
	if !r.IsAllowed(context.Background(), server.URL+"/anything") {
		t.Error("Expected missing robots.txt to allow everything")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	if got := NormalizeUserAgent("Wayfind/0.1 (+https://x)"); got != "Wayfind" {
		t.Errorf("Unexpected token %q", got)
	}
}

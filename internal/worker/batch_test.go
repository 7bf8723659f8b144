package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/wayfind/internal/model"
)

type mockAnswerer struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (m *mockAnswerer) GetRecommendations(ctx context.Context, request string) model.ConversationalResponse {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond) // Simulate work
	return model.ConversationalResponse{Message: "answer to " + request}
}

func TestBatchProcessor_ProcessRequests(t *testing.T) {
	answerer := &mockAnswerer{}
	processor := NewBatchProcessor(answerer, 2)

	requests := []Request{
		{Line: 1, Text: "hiking near Graz"},
		{Line: 2, Text: "running in Vienna"},
		{Line: 4, Text: "indoor climbing Berlin"},
		{Line: 5, Text: "cycling Oslo"},
	}

	results := processor.ProcessRequests(context.Background(), requests)

	if len(results) != len(requests) {
		t.Fatalf("expected %d results, got %d", len(requests), len(results))
	}
	for i, res := range results {
		if res.Line != requests[i].Line {
			t.Errorf("result %d: expected line %d, got %d", i, requests[i].Line, res.Line)
		}
		if want := "answer to " + requests[i].Text; res.Response.Message != want {
			t.Errorf("result %d: expected %q, got %q", i, want, res.Response.Message)
		}
	}
	if peak := answerer.peak.Load(); peak > 2 {
		t.Errorf("expected at most 2 concurrent requests, got %d", peak)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	results := NewBatchProcessor(&mockAnswerer{}, 0).ProcessRequests(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestReadRequests(t *testing.T) {
	input := "hiking near Graz\n\n# weekend ideas\n  running in Vienna  \n"

	requests, err := ReadRequests(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Request{{Line: 1, Text: "hiking near Graz"}, {Line: 4, Text: "running in Vienna"}}
	if len(requests) != len(want) {
		t.Fatalf("expected %d requests, got %d", len(want), len(requests))
	}
	for i := range want {
		if requests[i] != want[i] {
			t.Errorf("request %d: expected %+v, got %+v", i, want[i], requests[i])
		}
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.txt")
	if err := os.WriteFile(path, []byte("yoga in Zurich\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	results, err := NewBatchProcessor(&mockAnswerer{}, 1).ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Response.Message != "answer to yoga in Zurich" {
		t.Errorf("unexpected results: %+v", results)
	}

	if _, err := NewBatchProcessor(&mockAnswerer{}, 1).ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

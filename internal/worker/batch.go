// Package worker answers many independent requests concurrently.
package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/wayfind/internal/model"
)

// Answerer answers one top-level request. It never fails.
type Answerer interface {
	GetRecommendations(ctx context.Context, request string) model.ConversationalResponse
}

// Request is one line of a batch file.
type Request struct {
	Line int    `json:"line"`
	Text string `json:"request"`
}

// Result pairs a request with its response.
type Result struct {
	Request
	Response model.ConversationalResponse `json:"response"`
}

// BatchProcessor answers requests with bounded concurrency
type BatchProcessor struct {
	answerer    Answerer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(a Answerer, concurrency int) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchProcessor{answerer: a, concurrency: concurrency}
}

// ProcessRequests answers every request. Results keep input order.
func (b *BatchProcessor) ProcessRequests(ctx context.Context, requests []Request) []Result {
	results := make([]Result, len(requests))

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i, req := range requests {
		g.Go(func() error {
			results[i] = Result{Request: req, Response: b.answerer.GetRecommendations(ctx, req.Text)}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ProcessFile reads requests from a file and answers them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]Result, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	requests, err := ReadRequests(f)
	if err != nil {
		return nil, fmt.Errorf("read requests: %w", err)
	}
	return b.ProcessRequests(ctx, requests), nil
}

// ReadRequests reads one request per line
func ReadRequests(r io.Reader) ([]Request, error) {
	var requests []Request

	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		requests = append(requests, Request{Line: n, Text: line})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return requests, nil
}

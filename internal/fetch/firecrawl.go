package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/wayfind/internal/model"
	"github.com/ppiankov/wayfind/internal/retry"
)

const defaultFirecrawlURL = "https://api.firecrawl.dev"

// FirecrawlFetcher scrapes pages through the Firecrawl scrape API.
type FirecrawlFetcher struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

type firecrawlScrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	Timeout         int      `json:"timeout,omitempty"` // milliseconds
}

type firecrawlScrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title     string `json:"title"`
			SourceURL string `json:"sourceURL"`
		} `json:"metadata"`
	} `json:"data"`
}

// NewFirecrawlFetcher creates a Firecrawl-backed fetcher.
func NewFirecrawlFetcher(baseURL, apiKey string, timeout time.Duration) (*FirecrawlFetcher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("firecrawl API key is required: %w", model.ErrMissingCredential)
	}
	if baseURL == "" {
		baseURL = defaultFirecrawlURL
	}
	return &FirecrawlFetcher{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		// the API enforces its own timeout; leave headroom for the round trip
		httpClient: &http.Client{Timeout: timeout + 10*time.Second},
	}, nil
}

// Fetch scrapes rawURL and returns its markdown.
func (f *FirecrawlFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	body, err := json.Marshal(firecrawlScrapeRequest{
		URL:             rawURL,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
		Timeout:         int(f.timeout / time.Millisecond),
	})
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var out firecrawlScrapeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode scrape response: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("firecrawl scrape failed: %s", out.Error)
	}

	final := out.Data.Metadata.SourceURL
	if final == "" {
		final = rawURL
	}
	return &Page{
		URL:      rawURL,
		FinalURL: final,
		Title:    out.Data.Metadata.Title,
		Text:     collapse(out.Data.Markdown),
		Links:    markdownLinks(out.Data.Markdown),
		Backend:  "firecrawl",
	}, nil
}

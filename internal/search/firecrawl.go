package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ppiankov/wayfind/internal/model"
	"github.com/ppiankov/wayfind/internal/retry"
)

const defaultFirecrawlURL = "https://api.firecrawl.dev"

// Firecrawl queries the Firecrawl search API.
type Firecrawl struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type firecrawlSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type firecrawlSearchResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    []struct {
		URL         string `json:"url"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"data"`
}

// NewFirecrawl creates a Firecrawl search engine.
func NewFirecrawl(baseURL, apiKey string, httpClient *http.Client) (*Firecrawl, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("firecrawl API key is required: %w", model.ErrMissingCredential)
	}
	if baseURL == "" {
		baseURL = defaultFirecrawlURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Firecrawl{baseURL: strings.TrimSuffix(baseURL, "/"), apiKey: apiKey, httpClient: httpClient}, nil
}

// Name returns the engine name.
func (f *Firecrawl) Name() string { return "firecrawl" }

// Search returns up to limit hits for query.
func (f *Firecrawl) Search(ctx context.Context, query string, limit int) ([]model.SearchHit, error) {
	limit = clampMax(limit)
	body, err := json.Marshal(firecrawlSearchRequest{Query: query, Limit: limit})
	if err != nil {
		return nil, retry.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("firecrawl search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	var out firecrawlSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode firecrawl response: %w", err)
	}
	if !out.Success && out.Error != "" {
		return nil, fmt.Errorf("firecrawl search failed: %s", out.Error)
	}

	hits := make([]model.SearchHit, 0, len(out.Data))
	for _, d := range out.Data {
		if h, ok := hit(d.URL, d.Title, d.Description); ok {
			hits = append(hits, h)
		}
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

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

const defaultTavilyURL = "https://api.tavily.com"

// Tavily queries the Tavily search API.
type Tavily struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// NewTavily creates a Tavily engine.
func NewTavily(baseURL, apiKey string, httpClient *http.Client) (*Tavily, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("tavily API key is required: %w", model.ErrMissingCredential)
	}
	if baseURL == "" {
		baseURL = defaultTavilyURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Tavily{baseURL: strings.TrimSuffix(baseURL, "/"), apiKey: apiKey, httpClient: httpClient}, nil
}

// Name returns the engine name.
func (t *Tavily) Name() string { return "tavily" }

// Search returns up to limit hits for query.
func (t *Tavily) Search(ctx context.Context, query string, limit int) ([]model.SearchHit, error) {
	limit = clampMax(limit)
	body, err := json.Marshal(tavilyRequest{
		APIKey:      t.apiKey,
		Query:       query,
		SearchDepth: "basic",
		MaxResults:  limit,
	})
	if err != nil {
		return nil, retry.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	var out tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode tavily response: %w", err)
	}

	hits := make([]model.SearchHit, 0, len(out.Results))
	for _, r := range out.Results {
		if h, ok := hit(r.URL, r.Title, r.Content); ok {
			hits = append(hits, h)
		}
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

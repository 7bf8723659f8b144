package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/wayfind/internal/retry"
)

const defaultJinaURL = "https://r.jina.ai"

// ReaderFetcher fetches pages through the Jina reader proxy, which returns
// the rendered page as markdown.
type ReaderFetcher struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewReaderFetcher creates a reader-proxy fetcher. apiKey is optional.
func NewReaderFetcher(baseURL, apiKey string, timeout time.Duration) *ReaderFetcher {
	if baseURL == "" {
		baseURL = defaultJinaURL
	}
	return &ReaderFetcher{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the reader's markdown rendering of rawURL.
func (r *ReaderFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/"+rawURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("X-Return-Format", "markdown")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	title, text := splitReaderHeader(string(body))
	return &Page{
		URL:      rawURL,
		FinalURL: rawURL,
		Title:    title,
		Text:     collapse(text),
		Links:    markdownLinks(text),
		Backend:  "jina",
	}, nil
}

// splitReaderHeader separates the "Title:" preamble the reader emits from
// the markdown body.
func splitReaderHeader(body string) (title, text string) {
	const marker = "Markdown Content:"
	text = body
	if i := strings.Index(body, marker); i >= 0 {
		text = body[i+len(marker):]
		for _, line := range strings.Split(body[:i], "\n") {
			if t, ok := strings.CutPrefix(strings.TrimSpace(line), "Title:"); ok {
				title = strings.TrimSpace(t)
			}
		}
	}
	return title, text
}

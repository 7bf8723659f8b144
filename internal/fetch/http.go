package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/wayfind/internal/retry"
	"github.com/ppiankov/wayfind/internal/util"
)

// HTTPFetcher fetches HTML directly and reduces it to readable text.
type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// HTTPOptions configures an HTTPFetcher.
type HTTPOptions struct {
	Timeout    time.Duration
	UserAgent  string
	MaxBytes   int64
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// NewHTTPFetcher creates a direct fetcher.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 2_000_000
	}
	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
	}
}

// Fetch retrieves the URL and extracts its title, text and links.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retry.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := resp.Request.URL
	page := &Page{URL: rawURL, FinalURL: finalURL.String(), Backend: "direct"}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "xml") {
		page.Text = collapse(string(body))
		return page, nil
	}

	if err := parseHTML(page, string(body), finalURL); err != nil {
		return nil, err
	}
	return page, nil
}

const textSelectors = "h1, h2, h3, h4, h5, p, li, dt, dd, td, th, blockquote, figcaption"

func parseHTML(page *Page, html string, base *url.URL) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	page.Links = htmlLinks(doc, base)

	doc.Find("script, style, noscript, svg, iframe, form, nav, footer, header, aside").Remove()

	var b strings.Builder
	doc.Find(textSelectors).Each(func(_ int, s *goquery.Selection) {
		// nested matches (p inside li) would repeat text
		if s.ParentsFiltered(textSelectors).Length() > 0 {
			return
		}
		if t := strings.TrimSpace(s.Text()); t != "" {
			b.WriteString(t)
			b.WriteString("\n")
		}
	})

	text := b.String()
	if strings.TrimSpace(text) == "" {
		text = doc.Find("body").Text()
	}
	page.Text = collapse(text)
	return nil
}

func htmlLinks(doc *goquery.Document, base *url.URL) []Link {
	seen := make(map[string]bool)
	var links []Link
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return true
		}
		u := abs.String()
		if seen[u] || u == base.String() {
			return true
		}
		seen[u] = true
		links = append(links, Link{URL: u, Text: collapse(s.Text())})
		return len(links) < maxLinks
	})
	return links
}

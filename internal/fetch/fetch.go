// Package fetch retrieves web pages as plain text for activity extraction.
package fetch

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// Sentinel errors. Callers treat every one of them as "no content from
// this URL".
var (
	ErrBlockedDomain       = errors.New("domain is on the fetch block-list")
	ErrDisallowedByRobots  = errors.New("disallowed by robots.txt")
	ErrInsufficientContent = errors.New("insufficient page content")
	ErrUnsupportedURL      = errors.New("unsupported URL")
)

// Link is an outbound hyperlink found on a page.
type Link struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Page is the text form of a fetched document.
type Page struct {
	URL      string `json:"url"`
	FinalURL string `json:"final_url"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Links    []Link `json:"links,omitempty"`
	Backend  string `json:"backend"`
}

// Fetcher turns a URL into page text.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

var markdownLink = regexp.MustCompile(`\[([^\]\n]{1,200})\]\((https?://[^)\s]+)\)`)

const maxLinks = 50

// markdownLinks collects absolute links from markdown page text.
func markdownLinks(md string) []Link {
	seen := make(map[string]bool)
	var links []Link
	for _, m := range markdownLink.FindAllStringSubmatch(md, -1) {
		u := m[2]
		if seen[u] {
			continue
		}
		seen[u] = true
		links = append(links, Link{URL: u, Text: strings.TrimSpace(m[1])})
		if len(links) >= maxLinks {
			break
		}
	}
	return links
}

var spaceRun = regexp.MustCompile(`[ \t\f\v]+`)
var blankLines = regexp.MustCompile(`\n{3,}`)

// collapse normalizes whitespace while keeping paragraph breaks.
func collapse(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRun.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLines.ReplaceAllString(s, "\n\n"))
}

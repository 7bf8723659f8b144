// Package keywords finds whole-word phrase matches in free text.
package keywords

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// Matcher matches a fixed phrase set case-insensitively.
type Matcher struct {
	mu       sync.Mutex // FindAll is not documented as safe for concurrent use
	ac       ahocorasick.AhoCorasick
	patterns []string
}

// New builds a matcher for phrases. Blank phrases are ignored.
func New(phrases ...string) *Matcher {
	patterns := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			patterns = append(patterns, p)
		}
	}
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
		DFA:                  true,
	})
	return &Matcher{ac: builder.Build(patterns), patterns: patterns}
}

// Find returns the distinct phrases found in text as whole words, in the
// order they first appear.
func (m *Matcher) Find(text string) []string {
	if m == nil || len(m.patterns) == 0 || text == "" {
		return nil
	}

	m.mu.Lock()
	matches := m.ac.FindAll(text)
	m.mu.Unlock()

	seen := make(map[int]bool, len(matches))
	var out []string
	for _, match := range matches {
		if !wholeWord(text, match.Start(), match.End()) || seen[match.Pattern()] {
			continue
		}
		seen[match.Pattern()] = true
		out = append(out, m.patterns[match.Pattern()])
	}
	return out
}

// Any reports whether any phrase occurs in text.
func (m *Matcher) Any(text string) bool {
	return len(m.Find(text)) > 0
}

func wholeWord(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

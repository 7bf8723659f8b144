package fetch

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Blocklist rejects interactive and social domains before any network call.
// Entries match their registrable domain and every subdomain of it.
type Blocklist struct {
	domains map[string]bool
}

// NewBlocklist builds a block-list from domain names.
func NewBlocklist(domains []string) *Blocklist {
	b := &Blocklist{domains: make(map[string]bool, len(domains))}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "www.")
		if d != "" {
			b.domains[d] = true
		}
	}
	return b
}

// Blocked reports whether rawURL's host falls under a blocked domain.
func (b *Blocklist) Blocked(rawURL string) bool {
	if b == nil || len(b.domains) == 0 {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}

	if registrable, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil && b.domains[registrable] {
		return true
	}
	for h := host; h != ""; {
		if b.domains[h] {
			return true
		}
		i := strings.IndexByte(h, '.')
		if i < 0 {
			break
		}
		h = h[i+1:]
	}
	return false
}

// registrableDomain returns the eTLD+1 of rawURL's host, or the bare host
// when it has none (IP addresses, localhost).
func registrableDomain(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(parsed.Hostname())
	if net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		return parsed.Host, nil
	}
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d, nil
	}
	return parsed.Host, nil
}

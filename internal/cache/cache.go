// Package cache holds the fetched-page cache layers and the clocked
// TTL store used for weather lookups.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Clock reports the current time. Tests inject a fake one.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }

// Key builds a namespaced cache key from raw input, e.g. a URL.
func Key(namespace, raw string) string {
	hash := sha256.Sum256([]byte(raw))
	return "wayfind:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}

// NormalizeKey lowercases and trims free-text keys such as location names.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

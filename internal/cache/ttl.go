package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type stamped struct {
	value    string
	storedAt time.Time
}

// TTLStore keeps one (value, timestamp) pair per normalized key and treats
// entries older than its TTL as absent. Expiry is judged against an
// injected Clock rather than go-cache's own wall-clock expiration.
type TTLStore struct {
	mu    sync.Mutex
	items *gocache.Cache
	ttl   time.Duration
	clock Clock
}

// NewTTLStore creates a store; a nil clock uses the wall clock.
func NewTTLStore(ttl time.Duration, clock Clock) *TTLStore {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TTLStore{
		items: gocache.New(gocache.NoExpiration, 0),
		ttl:   ttl,
		clock: clock,
	}
}

// Get returns the live value for key, evicting it if it has expired.
func (s *TTLStore) Get(key string) (string, bool) {
	key = NormalizeKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.items.Get(key)
	if !ok {
		return "", false
	}
	entry := raw.(stamped)
	if s.clock.Now().Sub(entry.storedAt) >= s.ttl {
		s.items.Delete(key)
		return "", false
	}
	return entry.value, true
}

// Set stores value under key, stamped with the current clock time.
func (s *TTLStore) Set(key, value string) {
	key = NormalizeKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.Set(key, stamped{value: value, storedAt: s.clock.Now()}, gocache.NoExpiration)
}

// Len reports how many entries are held, expired or not.
func (s *TTLStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.ItemCount()
}

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TokenStore keeps short-lived string values under a key with a TTL.
type TokenStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns ErrTokenNotFound when the key is absent or expired.
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// Every sweepInterval writes, Set drops expired entries, looking at no more
// than sweepBatch of them.
const (
	sweepInterval = 64
	sweepBatch    = 256
)

// MemoryTokenStore is a TokenStore for a single process. Expired entries
// are dropped when read and by a bounded sweep on Set.
type MemoryTokenStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   clockwork.Clock
	writes  int
}

// NewMemoryTokenStore creates an empty store. A nil clock means wall time.
func NewMemoryTokenStore(clock clockwork.Clock) *MemoryTokenStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryTokenStore{entries: make(map[string]memoryEntry), clock: clock}
}

var _ TokenStore = (*MemoryTokenStore)(nil)

func (s *MemoryTokenStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	s.entries[key] = memoryEntry{value: value, expires: now.Add(ttl)}
	s.writes++
	if s.writes%sweepInterval == 0 {
		s.sweep(now)
	}
	return nil
}

// sweep removes expired entries; callers hold mu.
func (s *MemoryTokenStore) sweep(now time.Time) {
	seen := 0
	for k, e := range s.entries {
		if seen == sweepBatch {
			return
		}
		seen++
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryTokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryTokenStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return "", ErrTokenNotFound
	}
	if !s.clock.Now().Before(e.expires) {
		delete(s.entries, key)
		return "", ErrTokenNotFound
	}
	return e.value, nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

package service

import (
	"context"
	"sync"
	"time"
)

// NegativeLookupCacheStore remembers keys that recently resolved to nothing
// so repeated misses can be answered without touching the database.
type NegativeLookupCacheStore interface {
	Get(ctx context.Context, namespace, key string) (bool, error)
	Set(ctx context.Context, namespace, key string, ttl time.Duration) error
	Backend() string
}

type NoopNegativeLookupCacheStore struct{}

func NewNoopNegativeLookupCacheStore() *NoopNegativeLookupCacheStore {
	return &NoopNegativeLookupCacheStore{}
}

func (s *NoopNegativeLookupCacheStore) Get(context.Context, string, string) (bool, error) {
	return false, nil
}

func (s *NoopNegativeLookupCacheStore) Set(context.Context, string, string, time.Duration) error {
	return nil
}

func (s *NoopNegativeLookupCacheStore) Backend() string { return "none" }

const defaultNegativeCacheMaxEntries = 10000

type negativeEntryKey struct {
	namespace string
	key       string
}

// InMemoryNegativeLookupCacheStore is bounded: when full, expired entries
// are swept and, failing that, the write is dropped. A flood of bogus
// tokens then falls through to the database instead of growing memory.
type InMemoryNegativeLookupCacheStore struct {
	mu         sync.Mutex
	entries    map[negativeEntryKey]time.Time
	maxEntries int
	now        func() time.Time
}

func NewInMemoryNegativeLookupCacheStore() *InMemoryNegativeLookupCacheStore {
	return &InMemoryNegativeLookupCacheStore{
		entries:    make(map[negativeEntryKey]time.Time),
		maxEntries: defaultNegativeCacheMaxEntries,
		now:        time.Now,
	}
}

func (s *InMemoryNegativeLookupCacheStore) Backend() string { return "memory" }

func (s *InMemoryNegativeLookupCacheStore) Get(_ context.Context, namespace, key string) (bool, error) {
	k := negativeEntryKey{namespace: namespace, key: key}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.entries[k]
	if !ok {
		return false, nil
	}
	if !now.Before(expiresAt) {
		delete(s.entries, k)
		return false, nil
	}
	return true, nil
}

func (s *InMemoryNegativeLookupCacheStore) Set(_ context.Context, namespace, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	k := negativeEntryKey{namespace: namespace, key: key}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[k]; !exists && len(s.entries) >= s.maxEntries {
		s.sweepLocked(now)
		if len(s.entries) >= s.maxEntries {
			return nil
		}
	}
	s.entries[k] = now.Add(ttl)
	return nil
}

func (s *InMemoryNegativeLookupCacheStore) sweepLocked(now time.Time) {
	for k, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, k)
		}
	}
}

func (s *InMemoryNegativeLookupCacheStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

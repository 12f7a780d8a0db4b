package session

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/wolfman30/health-erp-chatbot/internal/observability/metrics"
)

const (
	defaultMaxEntries = 10000
	defaultTTL        = 24 * time.Hour
)

// MemoryStore is a bounded in-process Store backed by an expirable LRU.
// Entries idle for longer than the TTL expire, and the least recently used
// entry is evicted once the capacity is reached. Callers always receive
// copies.
type MemoryStore struct {
	mu         sync.Mutex
	cache      *expirable.LRU[string, *memoryEntry]
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	metrics    *metrics.ChatMetrics
}

// storedAt is wall-clock time so it lines up with the cache's own expiry.
type memoryEntry struct {
	sess     *Session
	storedAt time.Time
}

// MemoryOption customises a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for session timestamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// WithMetrics records evictions.
func WithMetrics(m *metrics.ChatMetrics) MemoryOption {
	return func(s *MemoryStore) { s.metrics = m }
}

// NewMemoryStore creates a store holding at most maxEntries sessions.
func NewMemoryStore(maxEntries int, ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	s := &MemoryStore{
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = expirable.NewLRU[string, *memoryEntry](maxEntries, s.onEvict, ttl)
	return s
}

// onEvict runs under the cache lock, including from its cleanup goroutine.
// Explicit deletes of live sessions are not counted.
func (s *MemoryStore) onEvict(_ string, e *memoryEntry) {
	if s.expired(e) {
		s.metrics.ObserveEviction("ttl")
	}
}

func (s *MemoryStore) expired(e *memoryEntry) bool {
	return time.Since(e.storedAt) >= s.ttl
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.lookup(userID)
	if !ok {
		return nil, ErrNotFound
	}
	return entry.sess.Clone(), nil
}

func (s *MemoryStore) GetOrCreate(_ context.Context, userID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.lookup(userID); ok {
		return entry.sess.Clone(), nil
	}
	sess := New(userID, s.now())
	s.put(sess)
	return sess.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	if sess == nil || sess.UserID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := sess.Clone()
	stored.UpdatedAt = s.now()
	s.put(stored)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Remove(userID)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

// Sweep drops every expired session that the cache has not cleaned up yet
// and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

// sweepLocked walks from the least recently used end. Caller holds mu.
func (s *MemoryStore) sweepLocked() int {
	removed := 0
	for {
		key, entry, ok := s.cache.GetOldest()
		if !ok || !s.expired(entry) {
			return removed
		}
		if s.cache.Remove(key) {
			removed++
		}
	}
}

// lookup returns a live entry and restarts its idle timer. Caller holds mu.
func (s *MemoryStore) lookup(userID string) (*memoryEntry, bool) {
	entry, ok := s.cache.Get(userID)
	if !ok {
		return nil, false
	}
	s.cache.Add(userID, &memoryEntry{sess: entry.sess, storedAt: time.Now()})
	return entry, true
}

// put inserts or replaces a session. Caller holds mu.
func (s *MemoryStore) put(sess *Session) {
	if !s.cache.Contains(sess.UserID) && s.cache.Len() >= s.maxEntries {
		s.sweepLocked()
	}
	if evicted := s.cache.Add(sess.UserID, &memoryEntry{sess: sess, storedAt: time.Now()}); evicted {
		s.metrics.ObserveEviction("lru")
	}
}

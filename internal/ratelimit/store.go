package ratelimit

import (
	"sync"
	"time"
)

// Store tracks request counts per key across fixed windows. Increment bumps
// the counter for key, starting a fresh window when the previous one has
// elapsed, and returns the updated count together with the window's reset
// time.
type Store interface {
	Increment(key string, now time.Time, window time.Duration) (count int, resetAt time.Time)
}

// SweepPolicy decides when a store should drop expired entries. It is
// consulted on every insert of a new key.
type SweepPolicy interface {
	ShouldSweep(size int) bool
}

// HighWaterPolicy sweeps whenever the store grows past Max keys.
type HighWaterPolicy struct {
	Max int
}

func (p HighWaterPolicy) ShouldSweep(size int) bool {
	return size > p.Max
}

// DefaultSweepPolicy bounds the in-memory store at 5000 tracked keys.
var DefaultSweepPolicy SweepPolicy = HighWaterPolicy{Max: 5000}

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryStore is a mutex-guarded in-process Store. Expired entries are
// reclaimed lazily according to the configured sweep policy.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	policy  SweepPolicy
}

// NewMemoryStore creates a MemoryStore. A nil policy falls back to
// DefaultSweepPolicy.
func NewMemoryStore(policy SweepPolicy) *MemoryStore {
	if policy == nil {
		policy = DefaultSweepPolicy
	}
	return &MemoryStore{
		entries: make(map[string]*entry),
		policy:  policy,
	}
}

func (s *MemoryStore) Increment(key string, now time.Time, window time.Duration) (int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !now.Before(e.resetAt) {
		if !ok && s.policy.ShouldSweep(len(s.entries)) {
			s.sweepLocked(now)
		}
		e = &entry{resetAt: now.Add(window)}
		s.entries[key] = e
	}

	e.count++
	return e.count, e.resetAt
}

// Len reports the number of tracked keys, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for key, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, key)
		}
	}
}

package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/zEUsEleven11/Flight-Sight/internal/fares"
)

const defaultTTL = 24 * time.Hour

// key returns the cache key for the given search keyword. Keys are
// case-folded so "par" and "PAR" address the same entry.
func key(keyword string) string {
	return "locations:" + strings.ToLower(strings.TrimSpace(keyword))
}

type entry struct {
	locations []fares.Location
	expiresAt time.Time
}

// Memory is a process-local location cache with per-entry expiry.
// Entries are never returned past their expiry even if no sweep has run.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory constructs a Memory cache with a 24-hour TTL.
func NewMemory() *Memory {
	return NewMemoryWithClock(defaultTTL, time.Now)
}

// NewMemoryWithClock constructs a Memory cache with a custom TTL and clock (for tests).
func NewMemoryWithClock(ttl time.Duration, now func() time.Time) *Memory {
	return &Memory{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the cached locations for keyword. An entry whose expiry has
// passed is reported as a miss.
func (m *Memory) Get(_ context.Context, keyword string) ([]fares.Location, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key(keyword)]
	if !ok || !m.now().Before(e.expiresAt) {
		return nil, false, nil
	}

	return e.locations, true, nil
}

// Set inserts or overwrites the entry for keyword with expiry = now + TTL.
// Last write wins.
func (m *Memory) Set(_ context.Context, keyword string, locations []fares.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key(keyword)] = entry{
		locations: locations,
		expiresAt: m.now().Add(m.ttl),
	}

	return nil
}

// Delete removes the entry for keyword. Deleting an absent key is a no-op.
func (m *Memory) Delete(_ context.Context, keyword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key(keyword))
	return nil
}

// Sweep removes expired entries to reclaim memory. Each entry's own expiry
// is re-checked under the write lock, so a sweep never deletes an entry
// refreshed by a concurrent Set.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
			removed++
		}
	}

	return removed
}

// Len reports the number of entries currently held, including any that have
// expired but not yet been swept.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Ping reports backend health; a process-local map is always reachable.
func (m *Memory) Ping(_ context.Context) error {
	return nil
}

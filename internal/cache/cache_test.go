package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zEUsEleven11/Flight-Sight/internal/cache"
	"github.com/zEUsEleven11/Flight-Sight/internal/fares"
)

// fakeClock is a settable clock for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sampleLocations() []fares.Location {
	loc := fares.Location{Name: "CHARLES DE GAULLE", IataCode: "CDG", SubType: "AIRPORT"}
	loc.Address.CityName = "PARIS"
	loc.Address.CountryName = "FRANCE"
	return []fares.Location{loc}
}

// ---- Memory ----

func TestMemory_SetAndGet(t *testing.T) {
	m := cache.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "par", sampleLocations()))

	got, found, err := m.Get(ctx, "par")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, "CDG", got[0].IataCode)
}

func TestMemory_KeyIsCaseInsensitive(t *testing.T) {
	m := cache.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "par", sampleLocations()))

	_, found, err := m.Get(ctx, "PAR")
	require.NoError(t, err)
	assert.True(t, found, "uppercase lookup should hit the lowercase entry")

	_, found, err = m.Get(ctx, "  par ")
	require.NoError(t, err)
	assert.True(t, found, "surrounding whitespace should be ignored")
}

func TestMemory_Get_Miss(t *testing.T) {
	m := cache.NewMemory()

	got, found, err := m.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestMemory_ExpiredEntryIsAbsent(t *testing.T) {
	clock := newFakeClock()
	m := cache.NewMemoryWithClock(24*time.Hour, clock.Now)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "par", sampleLocations()))

	// No sweep runs here: the read-time guard alone must hide the entry.
	clock.Advance(24 * time.Hour)

	_, found, err := m.Get(ctx, "par")
	require.NoError(t, err)
	assert.False(t, found, "entry at exactly TTL should be treated as expired")
	assert.Equal(t, 1, m.Len(), "expired entry remains until swept")
}

func TestMemory_OverwriteRefreshesExpiry(t *testing.T) {
	clock := newFakeClock()
	m := cache.NewMemoryWithClock(24*time.Hour, clock.Now)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "par", sampleLocations()))

	clock.Advance(20 * time.Hour)

	fresh := sampleLocations()
	fresh[0].Name = "ORLY"
	require.NoError(t, m.Set(ctx, "PAR", fresh))

	// 30h after the first write, 10h after the second.
	clock.Advance(10 * time.Hour)

	got, found, err := m.Get(ctx, "par")
	require.NoError(t, err)
	require.True(t, found, "overwrite should reset expiry")
	assert.Equal(t, "ORLY", got[0].Name, "last write wins")
}

func TestMemory_Delete_Idempotent(t *testing.T) {
	m := cache.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "par", sampleLocations()))
	require.NoError(t, m.Delete(ctx, "PAR"))

	_, found, err := m.Get(ctx, "par")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting again must not error or change anything.
	require.NoError(t, m.Delete(ctx, "par"))
	require.NoError(t, m.Delete(ctx, "ghost"))
}

func TestMemory_Sweep_RemovesOnlyExpired(t *testing.T) {
	clock := newFakeClock()
	m := cache.NewMemoryWithClock(24*time.Hour, clock.Now)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "old", sampleLocations()))
	clock.Advance(23 * time.Hour)
	require.NoError(t, m.Set(ctx, "fresh", sampleLocations()))
	clock.Advance(2 * time.Hour)

	removed := m.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, m.Len())

	_, found, err := m.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, found, "sweep must not remove live entries")
}

func TestMemory_Sweep_RespectsRefreshedEntry(t *testing.T) {
	clock := newFakeClock()
	m := cache.NewMemoryWithClock(24*time.Hour, clock.Now)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "par", sampleLocations()))
	clock.Advance(25 * time.Hour)

	// Refresh just before the sweep fires, as a racing request would.
	require.NoError(t, m.Set(ctx, "par", sampleLocations()))

	assert.Equal(t, 0, m.Sweep(), "sweep must re-check expiry, not trust the schedule")

	_, found, err := m.Get(ctx, "par")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := cache.NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Set(ctx, "par", sampleLocations())
			_, _, _ = m.Get(ctx, "PAR")
			_ = m.Delete(ctx, "par")
			m.Sweep()
		}()
	}
	wg.Wait()
}

func TestMemory_Ping(t *testing.T) {
	require.NoError(t, cache.NewMemory().Ping(context.Background()))
}

// ---- Redis ----

func newTestRedis(t *testing.T) (*cache.Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewRedis(client), mr
}

func TestRedis_SetAndGet(t *testing.T) {
	c, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "par", sampleLocations()))

	got, found, err := c.Get(ctx, "PAR")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, "CDG", got[0].IataCode)
	assert.Equal(t, "PARIS", got[0].Address.CityName)
}

func TestRedis_Get_Miss(t *testing.T) {
	c, _ := newTestRedis(t)

	got, found, err := c.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestRedis_TTL(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "par", sampleLocations()))

	mr.FastForward(25 * time.Hour)

	_, found, err := c.Get(ctx, "par")
	require.NoError(t, err)
	assert.False(t, found, "entry should be expired after TTL")
}

func TestRedis_Delete_NonExistent(t *testing.T) {
	c, _ := newTestRedis(t)
	require.NoError(t, c.Delete(context.Background(), "ghost"))
}

func TestRedis_CachesEmptyResult(t *testing.T) {
	c, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "zzz", []fares.Location{}))

	got, found, err := c.Get(ctx, "zzz")
	require.NoError(t, err)
	assert.True(t, found, "an empty result set is still a hit")
	assert.Empty(t, got)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := cache.Connect(context.Background(), "redis://localhost:19999")
	require.Error(t, err)
}

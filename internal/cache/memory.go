package cache

import (
	"context"
	"sync"
	"time"

	"github.com/BigOtis/Polylogue/internal/models"
)

type entry struct {
	capturedAt time.Time
	msgs       []models.Message
}

// MemoryCache is the default in-process query cache. Entries are grouped in
// per-room submaps so InvalidateRoom is a single delete regardless of how
// many query shapes are cached.
type MemoryCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	gens  map[string]int64
	rooms map[string]map[string]entry
}

// NewMemoryCache creates an in-memory cache with the given TTL.
// Pass DefaultTTL outside of tests.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:   ttl,
		gens:  make(map[string]int64),
		rooms: make(map[string]map[string]entry),
	}
}

// Lookup returns a cached result if it is younger than the TTL and no
// invalidation has dropped the room since it was stored.
func (c *MemoryCache) Lookup(_ context.Context, room, key string) ([]models.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.rooms[room][key]
	if !ok || time.Since(e.capturedAt) >= c.ttl {
		return nil, false
	}
	return e.msgs, true
}

// Generation returns the room's current invalidation generation.
func (c *MemoryCache) Generation(_ context.Context, room string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[room]
}

// Store records a query result with the current time. gen must be the value
// Generation returned before the backing read; if the room has been
// invalidated since, the result may predate a write and is dropped. Callers
// must not mutate msgs afterwards.
func (c *MemoryCache) Store(_ context.Context, room, key string, gen int64, msgs []models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gens[room] {
		return
	}

	byKey, ok := c.rooms[room]
	if !ok {
		byKey = make(map[string]entry)
		c.rooms[room] = byKey
	}

	// Drop expired siblings while we hold the lock so idle rooms don't
	// accumulate dead entries.
	for k, e := range byKey {
		if time.Since(e.capturedAt) >= c.ttl {
			delete(byKey, k)
		}
	}

	byKey[key] = entry{capturedAt: time.Now(), msgs: msgs}
}

// InvalidateRoom drops every cached query for the room, regardless of key,
// and advances the generation so in-flight reads cannot re-store results
// captured before the write.
func (c *MemoryCache) InvalidateRoom(_ context.Context, room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, room)
	c.gens[room]++
}

// Package cache provides a short-TTL memoization layer for room message
// queries. It is a pure optimization: the message store stays the source of
// truth and the whole cache can be dropped at any time without losing data.
// Invalidation is room-scoped, not query-scoped, because any append changes
// the "most recent n" result for every limit/since combination at once.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/BigOtis/Polylogue/internal/models"
)

// DefaultTTL is the read-cache window. A cached result is never served past
// this age, and never across an observed write to its room.
const DefaultTTL = 5 * time.Second

// Key builds the normalized query key for a message query.
func Key(limit int, sinceSeq int64) string {
	return fmt.Sprintf("limit=%d&since_seq=%d", limit, sinceSeq)
}

// QueryCache memoizes message query results per room.
// Implementations must be safe for concurrent readers and writers, and all
// operations fail soft: a backend error is a miss, never a request failure.
//
// Each room carries a generation that InvalidateRoom advances. Callers
// capture it with Generation before reading the backing store and hand it
// back to Store; a result read before an invalidation then carries a stale
// generation and is dropped instead of resurrecting pre-write data. A
// negative generation means the backend could not be read; Store discards
// those too.
type QueryCache interface {
	Lookup(ctx context.Context, room, key string) ([]models.Message, bool)
	Generation(ctx context.Context, room string) int64
	Store(ctx context.Context, room, key string, gen int64, msgs []models.Message)
	InvalidateRoom(ctx context.Context, room string)
}

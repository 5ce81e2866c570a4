package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/BigOtis/Polylogue/internal/models"
)

// ErrStorageUnavailable marks failures of the underlying log or counter
// storage. Callers must never guess a sequence number when they see it.
var ErrStorageUnavailable = errors.New("storage unavailable")

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}

// DefaultQueryLimit is used when a caller passes no limit.
const DefaultQueryLimit = 20

// MaxQueryLimit caps a single query defensively.
const MaxQueryLimit = 200

// MessageStore is the per-room ordered message log plus its sequence
// allocator. Both PostgresStore and SQLiteStore implement this interface.
type MessageStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// NextSequence atomically allocates the next sequence number for a room.
	// Values are strictly increasing per room and never reissued, even under
	// concurrent callers. Gaps are tolerated; duplicates are not.
	NextSequence(ctx context.Context, room string) (int64, error)

	// Append allocates a sequence, stamps id and time, persists the message
	// and returns the stored record. The caller is responsible for
	// invalidating any read cache for the room after a successful append.
	Append(ctx context.Context, room, name, body string) (*models.Message, error)

	// RoomMessages returns up to limit of the most recent messages for a
	// room, ascending by sequence. sinceSeq > 0 restricts to seq > sinceSeq.
	// An empty room yields an empty slice, not an error.
	RoomMessages(ctx context.Context, room string, limit int, sinceSeq int64) ([]models.Message, error)

	// ListRooms returns the names of all rooms that have at least one message.
	ListRooms(ctx context.Context) ([]string, error)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}

// reverse flips a newest-first fetch into the ascending order callers see.
func reverse(msgs []models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}

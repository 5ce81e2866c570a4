package store

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/BigOtis/Polylogue/internal/models"
)

// PostgresStore handles PostgreSQL message log operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS room_counters (
		room TEXT PRIMARY KEY,
		seq  BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		room       TEXT NOT NULL,
		name       TEXT NOT NULL,
		body       TEXT NOT NULL,
		seq        BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (room, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_room_seq ON messages (room, seq DESC);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// NextSequence allocates the next sequence number for a room. The UPSERT
// takes the counter row lock, so concurrent appenders serialize per room
// and never receive the same value.
func (s *PostgresStore) NextSequence(ctx context.Context, room string) (int64, error) {
	var seq int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO room_counters (room, seq) VALUES ($1, 1)
		ON CONFLICT (room) DO UPDATE SET seq = room_counters.seq + 1
		RETURNING seq
	`, room).Scan(&seq)
	if err != nil {
		return 0, storageErr("allocate sequence", err)
	}
	return seq, nil
}

// Append allocates a sequence and persists a new message.
func (s *PostgresStore) Append(ctx context.Context, room, name, body string) (*models.Message, error) {
	seq, err := s.NextSequence(ctx, room)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:        ulid.Make().String(),
		Room:      room,
		Name:      name,
		Body:      body,
		Seq:       seq,
		Timestamp: time.Now().UTC(),
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO messages (id, room, name, body, seq, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID, msg.Room, msg.Name, msg.Body, msg.Seq, msg.Timestamp)
	if err != nil {
		return nil, storageErr("append message", err)
	}

	return msg, nil
}

// RoomMessages retrieves the most recent messages for a room, ascending by
// sequence. The fetch is newest-first so limit means "most recent n".
func (s *PostgresStore) RoomMessages(ctx context.Context, room string, limit int, sinceSeq int64) ([]models.Message, error) {
	limit = clampLimit(limit)

	query := `
		SELECT id, room, name, body, seq, created_at
		FROM messages
		WHERE room = $1`
	args := []any{room}

	if sinceSeq > 0 {
		query += ` AND seq > $2`
		args = append(args, sinceSeq)
	}
	query += ` ORDER BY seq DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query messages", err)
	}
	defer rows.Close()

	msgs := make([]models.Message, 0, limit)
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID,
			&msg.Room,
			&msg.Name,
			&msg.Body,
			&msg.Seq,
			&msg.Timestamp,
		)
		if err != nil {
			return nil, storageErr("scan message", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query messages", err)
	}

	reverse(msgs)
	return msgs, nil
}

// ListRooms returns the names of all rooms that have messages.
func (s *PostgresStore) ListRooms(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT room FROM messages ORDER BY room`)
	if err != nil {
		return nil, storageErr("list rooms", err)
	}
	defer rows.Close()

	var rooms []string
	for rows.Next() {
		var room string
		if err := rows.Scan(&room); err != nil {
			return nil, storageErr("scan room", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list rooms", err)
	}
	return rooms, nil
}

package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/BigOtis/Polylogue/internal/models"
)

// SQLiteStore handles SQLite message log operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/polylogue.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/polylogue.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS room_counters (
		room TEXT PRIMARY KEY,
		seq  INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		room       TEXT NOT NULL,
		name       TEXT NOT NULL,
		body       TEXT NOT NULL,
		seq        INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (room, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_room_seq ON messages(room, seq DESC);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// NextSequence allocates the next sequence number for a room. SQLite
// serializes writers, so the UPSERT never hands out the same value twice.
func (s *SQLiteStore) NextSequence(ctx context.Context, room string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO room_counters (room, seq) VALUES (?, 1)
		ON CONFLICT (room) DO UPDATE SET seq = seq + 1
		RETURNING seq
	`, room).Scan(&seq)
	if err != nil {
		return 0, storageErr("allocate sequence", err)
	}
	return seq, nil
}

// Append allocates a sequence and persists a new message.
func (s *SQLiteStore) Append(ctx context.Context, room, name, body string) (*models.Message, error) {
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

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, room, name, body, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.Room, msg.Name, msg.Body, msg.Seq, msg.Timestamp)
	if err != nil {
		return nil, storageErr("append message", err)
	}

	return msg, nil
}

// RoomMessages retrieves the most recent messages for a room, ascending by
// sequence. The fetch is newest-first so limit means "most recent n".
func (s *SQLiteStore) RoomMessages(ctx context.Context, room string, limit int, sinceSeq int64) ([]models.Message, error) {
	limit = clampLimit(limit)

	query := `
		SELECT id, room, name, body, seq, created_at
		FROM messages
		WHERE room = ?`
	args := []any{room}

	if sinceSeq > 0 {
		query += ` AND seq > ?`
		args = append(args, sinceSeq)
	}
	query += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
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
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT room FROM messages ORDER BY room`)
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

package models

import "time"

// Message is one entry in a room's ordered log. Seq is the authoritative
// ordering within a room; Timestamp is informational only. Messages are
// immutable once appended.
type Message struct {
	ID        string    `json:"id"` // ULID
	Room      string    `json:"room"`
	Name      string    `json:"name"`
	Body      string    `json:"message"`
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
}

package domain

import "time"

type MessageID string

// Message is a persisted chat message joined with its author snapshot.
// Immutable once broadcast; edits and deletes travel as separate events
// referencing the same ID.
type Message struct {
	ID        MessageID `json:"id"`
	RoomID    RoomID    `json:"room_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	User      Profile   `json:"user"`
}

const MaxContentLen = 4000

package core

import (
	"context"

	"github.com/yellcord/realtime/internal/domain"
)

// Frame is a raw encoded payload handed to a connection's outbound queue.
type Frame []byte

// SessionID identifies one live connection instance. A user may own many
// sessions concurrently (devices, tabs); each is delivered to independently.
type SessionID string

// Event is any JSON-encodable outbound payload carrying a "type" tag.
// The broadcast router encodes an event exactly once per publish.
type Event any

// OutboundConn abstracts the write side of a live connection.
// Owned by the adapter; the adapter must Close() it.
type OutboundConn interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to the caller.
type PublishResult struct {
	SentTo  int
	Dropped []SessionID
}

// Store is the persistence collaborator. Membership, rooms and messages
// are owned by the CRUD service; this core only consumes them.
type Store interface {
	// GetMembership returns (nil, nil) when the user is not a member.
	GetMembership(ctx context.Context, userID domain.UserID, roomID domain.RoomID) (*domain.Membership, error)
	InsertMessage(ctx context.Context, roomID domain.RoomID, userID domain.UserID, content string) (*domain.Message, error)
	GetUserProfile(ctx context.Context, userID domain.UserID) (*domain.Profile, error)
	SetUserOnline(ctx context.Context, userID domain.UserID, online bool) error
	SetMemberMediaFlags(ctx context.Context, roomID domain.RoomID, userID domain.UserID, flags domain.MediaFlags) error
	// ResetUserMediaFlags clears all advisory media flags for a user
	// across every room, used when the user's last session closes.
	ResetUserMediaFlags(ctx context.Context, userID domain.UserID) error
}

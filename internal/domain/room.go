package domain

import "time"

type (
	RoomID   string
	RoomName string
)

type Room struct {
	ID        RoomID   `json:"id"`
	Name      RoomName `json:"name"`
	LogoURL   string   `json:"logo_url,omitempty"`
	CreatedBy UserID   `json:"created_by"`
	Private   bool     `json:"is_private"`
}

// Membership is the persisted relation between a user and a room.
// Exactly one member per room carries the creator flag, set at
// room-creation time.
type Membership struct {
	RoomID    RoomID    `json:"room_id"`
	UserID    UserID    `json:"user_id"`
	Creator   bool      `json:"is_creator"`
	JoinedAt  time.Time `json:"joined_at"`
}

// MediaFlags are the advisory per-member media states. They mirror the
// is_speaking/is_video_on/is_screen_sharing columns and are never
// authoritative for call state.
type MediaFlags struct {
	Speaking      bool `json:"is_speaking"`
	VideoOn       bool `json:"is_video_on"`
	ScreenSharing bool `json:"is_screen_sharing"`
}

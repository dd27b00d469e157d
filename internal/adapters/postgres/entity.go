package postgres

import "time"

// Entities map the yellcord_* schema owned by the CRUD service. This
// core only reads rooms/users and writes messages, presence and
// advisory media flags.

type userEntity struct {
	ID        string `gorm:"primaryKey"`
	Username  string
	AvatarURL string
	IsOnline  bool
}

func (userEntity) TableName() string { return "yellcord_users" }

type roomEntity struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	LogoURL   string
	CreatedBy string
	IsPrivate bool
}

func (roomEntity) TableName() string { return "yellcord_rooms" }

type roomMemberEntity struct {
	RoomID          string `gorm:"primaryKey"`
	UserID          string `gorm:"primaryKey"`
	JoinedAt        time.Time
	IsSpeaking      bool
	IsVideoOn       bool
	IsScreenSharing bool
}

func (roomMemberEntity) TableName() string { return "yellcord_room_members" }

type messageEntity struct {
	ID        string `gorm:"primaryKey"`
	RoomID    string
	UserID    string
	Content   string
	CreatedAt time.Time
}

func (messageEntity) TableName() string { return "yellcord_messages" }

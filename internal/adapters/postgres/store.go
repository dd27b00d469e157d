package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yellcord/realtime/internal/domain"
)

// Store implements the persistence collaborator over the shared
// Postgres database.
type Store struct {
	db *gorm.DB
}

func Open(databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Store{db: db}, nil
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

type membershipRow struct {
	RoomID    string
	UserID    string
	JoinedAt  time.Time
	IsCreator bool
}

// GetMembership returns (nil, nil) for a non-member. The creator flag is
// derived from the room's created_by column, the single source of truth.
func (s *Store) GetMembership(ctx context.Context, userID domain.UserID, roomID domain.RoomID) (*domain.Membership, error) {
	var row membershipRow
	err := s.db.WithContext(ctx).
		Table("yellcord_room_members AS m").
		Select("m.room_id, m.user_id, m.joined_at, (r.created_by = m.user_id) AS is_creator").
		Joins("JOIN yellcord_rooms r ON r.id = m.room_id").
		Where("m.room_id = ? AND m.user_id = ?", string(roomID), string(userID)).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &domain.Membership{
		RoomID:   domain.RoomID(row.RoomID),
		UserID:   domain.UserID(row.UserID),
		Creator:  row.IsCreator,
		JoinedAt: row.JoinedAt,
	}, nil
}

// InsertMessage persists the message and returns it joined with the
// author's current profile snapshot.
func (s *Store) InsertMessage(ctx context.Context, roomID domain.RoomID, userID domain.UserID, content string) (*domain.Message, error) {
	ent := messageEntity{
		ID:        uuid.NewString(),
		RoomID:    string(roomID),
		UserID:    string(userID),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&ent).Error; err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	profile, err := s.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.Message{
		ID:        domain.MessageID(ent.ID),
		RoomID:    roomID,
		Content:   ent.Content,
		CreatedAt: ent.CreatedAt,
		User:      *profile,
	}, nil
}

func (s *Store) GetUserProfile(ctx context.Context, userID domain.UserID) (*domain.Profile, error) {
	var ent userEntity
	err := s.db.WithContext(ctx).Where("id = ?", string(userID)).Take(&ent).Error
	if err != nil {
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return &domain.Profile{
		ID:        domain.UserID(ent.ID),
		Username:  ent.Username,
		AvatarURL: ent.AvatarURL,
	}, nil
}

func (s *Store) SetUserOnline(ctx context.Context, userID domain.UserID, online bool) error {
	err := s.db.WithContext(ctx).
		Model(&userEntity{}).
		Where("id = ?", string(userID)).
		Update("is_online", online).Error
	if err != nil {
		return fmt.Errorf("set user online: %w", err)
	}
	return nil
}

func (s *Store) SetMemberMediaFlags(ctx context.Context, roomID domain.RoomID, userID domain.UserID, flags domain.MediaFlags) error {
	err := s.db.WithContext(ctx).
		Model(&roomMemberEntity{}).
		Where("room_id = ? AND user_id = ?", string(roomID), string(userID)).
		Updates(map[string]any{
			"is_speaking":       flags.Speaking,
			"is_video_on":       flags.VideoOn,
			"is_screen_sharing": flags.ScreenSharing,
		}).Error
	if err != nil {
		return fmt.Errorf("set member media flags: %w", err)
	}
	return nil
}

func (s *Store) ResetUserMediaFlags(ctx context.Context, userID domain.UserID) error {
	err := s.db.WithContext(ctx).
		Model(&roomMemberEntity{}).
		Where("user_id = ?", string(userID)).
		Updates(map[string]any{
			"is_speaking":       false,
			"is_video_on":       false,
			"is_screen_sharing": false,
		}).Error
	if err != nil {
		return fmt.Errorf("reset user media flags: %w", err)
	}
	return nil
}

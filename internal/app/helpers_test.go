package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yellcord/realtime/internal/core"
	"github.com/yellcord/realtime/internal/domain"
)

var errQueueFull = errors.New("queue full")

// fakeConn records every frame handed to the outbound queue.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errQueueFull
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// events decodes recorded frames into generic maps for assertions.
func (c *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			t.Fatalf("frame is not valid JSON: %v", err)
		}
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) eventsOfType(t *testing.T, typ string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, e := range c.events(t) {
		if e["type"] == typ {
			out = append(out, e)
		}
	}
	return out
}

// fakeStore is an in-memory persistence collaborator with injectable
// failures.
type fakeStore struct {
	mu sync.Mutex

	members  map[string]*domain.Membership
	profiles map[domain.UserID]domain.Profile

	membershipCalls int
	membershipFails int // fail this many upcoming GetMembership calls

	insertErr error
	inserted  []domain.Message

	online     map[domain.UserID]bool
	resetUsers []domain.UserID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:  make(map[string]*domain.Membership),
		profiles: make(map[domain.UserID]domain.Profile),
		online:   make(map[domain.UserID]bool),
	}
}

func memberKey(uid domain.UserID, roomID domain.RoomID) string {
	return string(roomID) + "|" + string(uid)
}

func (s *fakeStore) addMember(uid domain.UserID, roomID domain.RoomID, creator bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[memberKey(uid, roomID)] = &domain.Membership{
		RoomID:   roomID,
		UserID:   uid,
		Creator:  creator,
		JoinedAt: time.Now(),
	}
}

func (s *fakeStore) GetMembership(ctx context.Context, uid domain.UserID, roomID domain.RoomID) (*domain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.membershipCalls++
	if s.membershipFails > 0 {
		s.membershipFails--
		return nil, errors.New("store unavailable")
	}
	return s.members[memberKey(uid, roomID)], nil
}

func (s *fakeStore) InsertMessage(ctx context.Context, roomID domain.RoomID, uid domain.UserID, content string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	profile := s.profiles[uid]
	msg := domain.Message{
		ID:        domain.MessageID("m1"),
		RoomID:    roomID,
		Content:   content,
		CreatedAt: time.Now(),
		User:      profile,
	}
	s.inserted = append(s.inserted, msg)
	return &msg, nil
}

func (s *fakeStore) GetUserProfile(ctx context.Context, uid domain.UserID) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[uid]; ok {
		return &p, nil
	}
	return nil, errors.New("no such user")
}

func (s *fakeStore) SetUserOnline(ctx context.Context, uid domain.UserID, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online[uid] = online
	return nil
}

func (s *fakeStore) SetMemberMediaFlags(ctx context.Context, roomID domain.RoomID, uid domain.UserID, flags domain.MediaFlags) error {
	return nil
}

func (s *fakeStore) ResetUserMediaFlags(ctx context.Context, uid domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetUsers = append(s.resetUsers, uid)
	return nil
}

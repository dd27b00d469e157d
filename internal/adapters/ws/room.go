package ws

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/yellcord/realtime/internal/domain"
)

type roomPayload struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
}

func (s *session) handleJoinRoom(ctx context.Context, data []byte) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		s.sendError(domain.ErrValidation)
		return
	}
	if !s.ctl.authz.IsMember(ctx, s.uid, p.RoomID) {
		s.sendError(domain.ErrForbidden)
		return
	}
	if err := s.ctl.registry.JoinRoom(s.sid, p.RoomID); err != nil {
		s.sendError(err)
		return
	}
	log.Info().Str("module", "adapters.ws").Str("sid", string(s.sid)).Str("room", string(p.RoomID)).Msg("joined room")
	s.ctl.bus.PublishExcept(p.RoomID, s.sid, map[string]any{
		"type":     "user-joined",
		"userId":   s.uid,
		"username": s.username,
	})
}

func (s *session) handleLeaveRoom(data []byte) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		s.sendError(domain.ErrValidation)
		return
	}
	s.ctl.registry.LeaveRoom(s.sid, p.RoomID)
	delete(s.media, p.RoomID)
	log.Info().Str("module", "adapters.ws").Str("sid", string(s.sid)).Str("room", string(p.RoomID)).Msg("left room")
	s.ctl.bus.PublishExcept(p.RoomID, s.sid, map[string]any{
		"type":     "user-left",
		"userId":   s.uid,
		"username": s.username,
	})
}

func (s *session) handleMediaState(ctx context.Context, data []byte) {
	var p struct {
		Type   string        `json:"type"`
		RoomID domain.RoomID `json:"roomId"`
		Kind   string        `json:"kind"`
		Active bool          `json:"active"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		s.sendError(domain.ErrValidation)
		return
	}
	if !s.ctl.registry.InRoom(s.sid, p.RoomID) {
		s.sendError(domain.ErrForbidden)
		return
	}

	flags := s.media[p.RoomID]
	switch p.Kind {
	case "voice":
		flags.Speaking = p.Active
	case "video":
		flags.VideoOn = p.Active
	case "screen":
		flags.ScreenSharing = p.Active
	default:
		s.sendError(domain.ErrValidation)
		return
	}
	s.media[p.RoomID] = flags
	s.ctl.registry.SetMediaState(s.sid, p.RoomID, flags)

	// Advisory only: a failed flag write never blocks the broadcast.
	if err := s.ctl.store.SetMemberMediaFlags(context.WithoutCancel(ctx), p.RoomID, s.uid, flags); err != nil {
		log.Warn().Err(err).Str("module", "adapters.ws").Str("room", string(p.RoomID)).Msg("media flag write failed")
	}
	s.ctl.bus.Publish(p.RoomID, map[string]any{
		"type":   "user-media-state-changed",
		"userId": s.uid,
		"kind":   p.Kind,
		"active": p.Active,
	})
}

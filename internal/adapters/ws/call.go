package ws

import (
	"context"
	"encoding/json"

	"github.com/pion/webrtc/v4"

	"github.com/yellcord/realtime/internal/domain"
)

// join-call and join-screen-share are the same transition: both announce
// a negotiating participant to the room.
func (s *session) handleJoinCall(ctx context.Context, data []byte) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		s.sendError(domain.ErrValidation)
		return
	}
	if err := s.ctl.calls.JoinCall(ctx, s.sid, p.RoomID, s.uid); err != nil {
		s.sendError(err)
	}
}

func (s *session) handleLeaveCall(data []byte) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		s.sendError(domain.ErrValidation)
		return
	}
	s.ctl.calls.LeaveCall(s.sid, p.RoomID, s.uid)
}

func (s *session) handleOffer(ctx context.Context, data []byte) {
	var p struct {
		Type         string                    `json:"type"`
		RoomID       domain.RoomID             `json:"roomId"`
		TargetUserID domain.UserID             `json:"targetUserId"`
		Offer        webrtc.SessionDescription `json:"offer"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" || p.TargetUserID == "" {
		s.sendError(domain.ErrValidation)
		return
	}
	if err := s.ctl.calls.Offer(ctx, s.uid, p.RoomID, p.TargetUserID, p.Offer); err != nil {
		s.sendError(err)
	}
}

func (s *session) handleAnswer(ctx context.Context, data []byte) {
	var p struct {
		Type         string                    `json:"type"`
		RoomID       domain.RoomID             `json:"roomId"`
		TargetUserID domain.UserID             `json:"targetUserId"`
		Answer       webrtc.SessionDescription `json:"answer"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" || p.TargetUserID == "" {
		s.sendError(domain.ErrValidation)
		return
	}
	if err := s.ctl.calls.Answer(ctx, s.uid, p.RoomID, p.TargetUserID, p.Answer); err != nil {
		s.sendError(err)
	}
}

func (s *session) handleCandidate(ctx context.Context, data []byte) {
	var p struct {
		Type         string                  `json:"type"`
		RoomID       domain.RoomID           `json:"roomId"`
		TargetUserID domain.UserID           `json:"targetUserId"`
		Candidate    webrtc.ICECandidateInit `json:"candidate"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" || p.TargetUserID == "" {
		s.sendError(domain.ErrValidation)
		return
	}
	if err := s.ctl.calls.Candidate(ctx, s.uid, p.RoomID, p.TargetUserID, p.Candidate); err != nil {
		s.sendError(err)
	}
}

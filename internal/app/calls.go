package app

import (
	"context"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/yellcord/realtime/internal/core"
	"github.com/yellcord/realtime/internal/domain"
)

// CallRelay validates and forwards WebRTC negotiation messages between
// participants of a room. Media never passes through here, only
// signaling metadata. Call participation is best-effort in-memory state:
// a process restart loses it with no recovery signal to clients.
type CallRelay struct {
	registry *Registry
	auth     *Authorizer
	bus      *Broadcaster

	mu           sync.Mutex
	participants map[domain.RoomID]map[domain.UserID]struct{}
}

func NewCallRelay(registry *Registry, auth *Authorizer, bus *Broadcaster) *CallRelay {
	return &CallRelay{
		registry:     registry,
		auth:         auth,
		bus:          bus,
		participants: make(map[domain.RoomID]map[domain.UserID]struct{}),
	}
}

type userEvent struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
}

// JoinCall marks the user as in-call and tells the room, excluding the
// joining session itself: peers answer with offers, the joiner must not.
func (cr *CallRelay) JoinCall(ctx context.Context, sid core.SessionID, roomID domain.RoomID, uid domain.UserID) error {
	if !cr.auth.IsMember(ctx, uid, roomID) {
		return domain.ErrForbidden
	}
	cr.mu.Lock()
	if cr.participants[roomID] == nil {
		cr.participants[roomID] = make(map[domain.UserID]struct{})
	}
	cr.participants[roomID][uid] = struct{}{}
	cr.mu.Unlock()

	log.Info().Str("module", "app.calls").Str("room", string(roomID)).Str("user", string(uid)).Msg("joined call")
	cr.bus.PublishExcept(roomID, sid, userEvent{Type: "user-joined-call", UserID: uid})
	return nil
}

// LeaveCall removes the in-call marking and tells the room. Calling it
// for a user that is not in a call is a no-op with no broadcast.
func (cr *CallRelay) LeaveCall(sid core.SessionID, roomID domain.RoomID, uid domain.UserID) {
	cr.mu.Lock()
	members, ok := cr.participants[roomID]
	if ok {
		_, ok = members[uid]
	}
	if ok {
		delete(members, uid)
		if len(members) == 0 {
			delete(cr.participants, roomID)
		}
	}
	cr.mu.Unlock()
	if !ok {
		return
	}
	log.Info().Str("module", "app.calls").Str("room", string(roomID)).Str("user", string(uid)).Msg("left call")
	cr.bus.PublishExcept(roomID, sid, userEvent{Type: "user-left-call", UserID: uid})
}

// InCall reports whether the user is marked in-call for the room.
func (cr *CallRelay) InCall(roomID domain.RoomID, uid domain.UserID) bool {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	_, ok := cr.participants[roomID][uid]
	return ok
}

type offerEvent struct {
	Type   string                    `json:"type"`
	Offer  webrtc.SessionDescription `json:"offer"`
	UserID domain.UserID             `json:"userId"`
}

// Offer relays an SDP offer to every session of the target user joined
// to the room. A target with no live session there is silently dropped:
// calls are best-effort and a lost offer times out on the caller's side.
func (cr *CallRelay) Offer(ctx context.Context, from domain.UserID, roomID domain.RoomID, target domain.UserID, offer webrtc.SessionDescription) error {
	if offer.SDP == "" || offer.Type != webrtc.SDPTypeOffer {
		return domain.ErrValidation
	}
	if !cr.auth.IsMember(ctx, from, roomID) {
		return domain.ErrForbidden
	}
	n := cr.bus.PublishToUserInRoom(roomID, target, offerEvent{Type: "call-offer", Offer: offer, UserID: from})
	if n == 0 {
		log.Debug().Str("module", "app.calls").Str("room", string(roomID)).Str("target", string(target)).Msg("offer dropped, target has no live session in room")
	}
	return nil
}

type answerEvent struct {
	Type   string                    `json:"type"`
	Answer webrtc.SessionDescription `json:"answer"`
	UserID domain.UserID             `json:"userId"`
}

func (cr *CallRelay) Answer(ctx context.Context, from domain.UserID, roomID domain.RoomID, target domain.UserID, answer webrtc.SessionDescription) error {
	if answer.SDP == "" || answer.Type != webrtc.SDPTypeAnswer {
		return domain.ErrValidation
	}
	if !cr.auth.IsMember(ctx, from, roomID) {
		return domain.ErrForbidden
	}
	cr.bus.PublishToUserInRoom(roomID, target, answerEvent{Type: "call-answer", Answer: answer, UserID: from})
	return nil
}

type candidateEvent struct {
	Type      string                  `json:"type"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
	UserID    domain.UserID           `json:"userId"`
}

func (cr *CallRelay) Candidate(ctx context.Context, from domain.UserID, roomID domain.RoomID, target domain.UserID, cand webrtc.ICECandidateInit) error {
	if cand.Candidate == "" {
		return domain.ErrValidation
	}
	if !cr.auth.IsMember(ctx, from, roomID) {
		return domain.ErrForbidden
	}
	cr.bus.PublishToUserInRoom(roomID, target, candidateEvent{Type: "ice-candidate", Candidate: cand, UserID: from})
	return nil
}

// DisconnectCleanup emits leave-call for every room the closing session
// was joined to where its user was marked in-call. Runs once per user
// per room because LeaveCall removes the marking on first call.
func (cr *CallRelay) DisconnectCleanup(sid core.SessionID, uid domain.UserID, rooms []domain.RoomID) {
	for _, roomID := range rooms {
		if cr.InCall(roomID, uid) {
			cr.LeaveCall(sid, roomID, uid)
		}
	}
}

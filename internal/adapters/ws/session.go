package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yellcord/realtime/internal/core"
	"github.com/yellcord/realtime/internal/domain"
)

type connState int

const (
	stateConnecting connState = iota
	stateAuthenticated
	stateClosed
)

// session is one connection's lifecycle: handshake, authenticated,
// joined rooms, closed. All mutation happens on the read loop goroutine.
type session struct {
	ctl    *Controller
	sid    core.SessionID
	conn   *wsConn
	cancel context.CancelFunc

	state    connState
	uid      domain.UserID
	username string
	media    map[domain.RoomID]domain.MediaFlags
}

// authenticate moves the session from Connecting to Authenticated:
// registry entry, author profile snapshot, presence write when this is
// the user's first live session.
func (s *session) authenticate(ctx context.Context, uid domain.UserID) error {
	if err := s.ctl.registry.Register(s.sid, uid, s.conn, s.cancel); err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Str("sid", string(s.sid)).Msg("register failed")
		return err
	}
	s.uid = uid
	s.state = stateAuthenticated

	if profile, err := s.ctl.store.GetUserProfile(ctx, uid); err == nil {
		s.username = profile.Username
	} else {
		log.Warn().Err(err).Str("module", "adapters.ws").Str("user", string(uid)).Msg("profile lookup failed")
	}

	if len(s.ctl.registry.SessionsForUser(uid)) == 1 {
		if err := s.ctl.store.SetUserOnline(context.WithoutCancel(ctx), uid, true); err != nil {
			log.Warn().Err(err).Str("module", "adapters.ws").Str("user", string(uid)).Msg("presence write failed")
		}
	}
	log.Info().Str("module", "adapters.ws").Str("sid", string(s.sid)).Str("user", string(uid)).Msg("authenticated")
	return nil
}

// dispatch routes one inbound frame. Returns false when the connection
// must close.
func (s *session) dispatch(ctx context.Context, data []byte) bool {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		s.sendError(domain.ErrValidation)
		return true
	}

	if env.Type == "auth" {
		return s.handleAuth(ctx, data)
	}
	if env.Type == "ping" {
		s.sendEvent(map[string]string{"type": "pong"})
		return true
	}
	if s.state != stateAuthenticated {
		// Room-scoped traffic before authentication is fatal.
		s.sendError(domain.ErrUnauthorized)
		return false
	}

	switch env.Type {
	case "join-room":
		s.handleJoinRoom(ctx, data)
	case "leave-room":
		s.handleLeaveRoom(data)
	case "send-message":
		s.handleSendMessage(ctx, data)
	case "media-state-change":
		s.handleMediaState(ctx, data)
	case "join-call", "join-screen-share":
		s.handleJoinCall(ctx, data)
	case "leave-call":
		s.handleLeaveCall(data)
	case "call-offer":
		s.handleOffer(ctx, data)
	case "call-answer":
		s.handleAnswer(ctx, data)
	case "ice-candidate":
		s.handleCandidate(ctx, data)
	default:
		log.Warn().Str("module", "adapters.ws").Str("type", env.Type).Msg("unknown event")
		s.sendError(domain.ErrValidation)
	}
	return true
}

func (s *session) handleAuth(ctx context.Context, data []byte) bool {
	if s.state == stateAuthenticated {
		s.sendError(domain.ErrValidation)
		return true
	}
	var p struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Token == "" {
		s.sendError(domain.ErrUnauthorized)
		return false
	}
	uid, err := s.ctl.verifier.Verify(p.Token)
	if err != nil {
		s.sendError(domain.ErrUnauthorized)
		return false
	}
	if err := s.authenticate(ctx, uid); err != nil {
		s.sendError(err)
		return false
	}
	s.sendEvent(map[string]any{"type": "authenticated", "userId": uid})
	return true
}

// teardown is the Closed transition: remove from registry, leave any
// calls, and on the user's last session flip presence off and tell the
// rooms. Safe to reach from any state; runs once.
func (s *session) teardown() {
	if s.state == stateClosed {
		return
	}
	s.state = stateClosed
	s.cancel()
	defer s.conn.Close()

	res, ok := s.ctl.registry.Unregister(s.sid)
	if !ok {
		return
	}
	s.ctl.calls.DisconnectCleanup(s.sid, res.UserID, res.Rooms)

	if !res.LastOfUser {
		return
	}
	ctx, cancelBg := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelBg()
	if err := s.ctl.store.SetUserOnline(ctx, res.UserID, false); err != nil {
		log.Warn().Err(err).Str("module", "adapters.ws").Str("user", string(res.UserID)).Msg("presence write failed")
	}
	if err := s.ctl.store.ResetUserMediaFlags(ctx, res.UserID); err != nil {
		log.Warn().Err(err).Str("module", "adapters.ws").Str("user", string(res.UserID)).Msg("media flags reset failed")
	}
	for _, roomID := range res.Rooms {
		s.ctl.bus.Publish(roomID, map[string]any{"type": "user-offline", "userId": res.UserID})
	}
	log.Info().Str("module", "adapters.ws").Str("sid", string(s.sid)).Str("user", string(res.UserID)).Msg("user offline")
}

func (s *session) sendEvent(event core.Event) {
	b, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("event marshal")
		return
	}
	_ = s.conn.TrySend(b)
}

func (s *session) sendError(err error) {
	msg := "internal error"
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		msg = "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		msg = "forbidden"
	case errors.Is(err, domain.ErrValidation):
		msg = "invalid payload"
	case errors.Is(err, domain.ErrUnknownRoom):
		msg = "unknown room"
	case errors.Is(err, domain.ErrDuplicateSession):
		msg = "duplicate session"
	case errors.Is(err, domain.ErrDependency):
		msg = "temporarily unavailable"
	}
	s.sendEvent(map[string]string{"type": "error", "message": msg})
}

package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/yellcord/realtime/internal/core"
	"github.com/yellcord/realtime/internal/domain"
)

// Broadcaster resolves a room to its live sessions and delivers events to
// each one's outbound queue. Delivery is fire-and-forget: a closed, slow
// or full session never affects the others and never errors the caller.
type Broadcaster struct {
	registry *Registry
	policy   Policy
}

func NewBroadcaster(registry *Registry, policy Policy) *Broadcaster {
	return &Broadcaster{registry: registry, policy: policy}
}

// Publish encodes the event once and attempts delivery to every session
// currently joined to the room. Returns the number of sessions delivery
// was attempted to; this protocol has no application-level ack.
func (b *Broadcaster) Publish(roomID domain.RoomID, event core.Event) int {
	frame, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("room", string(roomID)).Msg("event marshal")
		return 0
	}
	sids := b.registry.SessionsInRoom(roomID)
	for _, sid := range sids {
		b.deliver(sid, frame)
	}
	return len(sids)
}

// PublishExcept is Publish minus one session, for events whose originator
// must not hear its own broadcast.
func (b *Broadcaster) PublishExcept(roomID domain.RoomID, skip core.SessionID, event core.Event) int {
	frame, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("room", string(roomID)).Msg("event marshal")
		return 0
	}
	n := 0
	for _, sid := range b.registry.SessionsInRoom(roomID) {
		if sid == skip {
			continue
		}
		b.deliver(sid, frame)
		n++
	}
	return n
}

// PublishToSession delivers directly to one session. Returns false if the
// session is unknown.
func (b *Broadcaster) PublishToSession(sid core.SessionID, event core.Event) bool {
	frame, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("sid", string(sid)).Msg("event marshal")
		return false
	}
	if _, ok := b.registry.Conn(sid); !ok {
		return false
	}
	b.deliver(sid, frame)
	return true
}

// PublishToUserInRoom delivers to every session of the target user that is
// currently joined to the room (a user may have several devices; the
// client de-duplicates). Returns the attempt count; zero means the target
// has no live session there.
func (b *Broadcaster) PublishToUserInRoom(roomID domain.RoomID, target domain.UserID, event core.Event) int {
	frame, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("room", string(roomID)).Msg("event marshal")
		return 0
	}
	n := 0
	for _, sid := range b.registry.SessionsForUser(target) {
		if !b.registry.InRoom(sid, roomID) {
			continue
		}
		b.deliver(sid, frame)
		n++
	}
	return n
}

func (b *Broadcaster) deliver(sid core.SessionID, frame core.Frame) {
	conn, ok := b.registry.Conn(sid)
	if !ok {
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "app.broadcast").Str("sid", string(sid)).Msg("outbound queue rejected event")
		if b.policy == nil {
			return
		}
		if b.policy.OnBackpressure(sid) == KickSession {
			b.registry.Cancel(sid)
		}
	}
}

package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/yellcord/realtime/internal/core"
	"github.com/yellcord/realtime/internal/domain"
)

type sessionEntry struct {
	UserID domain.UserID
	Conn   core.OutboundConn
	Rooms  map[domain.RoomID]struct{}
	Media  map[domain.RoomID]domain.MediaFlags
	Cancel context.CancelFunc
}

// Registry is the in-memory index of live sessions. One instance is
// constructed at process start and injected into every connection task.
// No persistence: on restart all underlying connections are gone too.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	byUser   map[domain.UserID]map[core.SessionID]struct{}
	byRoom   map[domain.RoomID]map[core.SessionID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		byUser:   make(map[domain.UserID]map[core.SessionID]struct{}),
		byRoom:   make(map[domain.RoomID]map[core.SessionID]struct{}),
	}
}

func (r *Registry) Register(sid core.SessionID, uid domain.UserID, conn core.OutboundConn, cancel context.CancelFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sid]; ok {
		return domain.ErrDuplicateSession
	}
	r.sessions[sid] = &sessionEntry{
		UserID: uid,
		Conn:   conn,
		Rooms:  make(map[domain.RoomID]struct{}),
		Media:  make(map[domain.RoomID]domain.MediaFlags),
		Cancel: cancel,
	}
	if r.byUser[uid] == nil {
		r.byUser[uid] = make(map[core.SessionID]struct{})
	}
	r.byUser[uid][sid] = struct{}{}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", string(uid)).Msg("registered session")
	return nil
}

// UnregisterResult is the final snapshot of a removed session, used by the
// lifecycle manager to drive presence and call cleanup.
type UnregisterResult struct {
	UserID      domain.UserID
	Rooms       []domain.RoomID
	LastOfUser  bool
}

// Unregister removes the session and all its room associations.
// Idempotent: the second call reports ok=false and does nothing.
func (r *Registry) Unregister(sid core.SessionID) (UnregisterResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return UnregisterResult{}, false
	}
	delete(r.sessions, sid)
	res := UnregisterResult{UserID: e.UserID}
	for roomID := range e.Rooms {
		res.Rooms = append(res.Rooms, roomID)
		r.dropFromRoom(roomID, sid)
	}
	if peers, ok := r.byUser[e.UserID]; ok {
		delete(peers, sid)
		if len(peers) == 0 {
			delete(r.byUser, e.UserID)
			res.LastOfUser = true
		}
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Bool("last_of_user", res.LastOfUser).Msg("unregistered session")
	return res, true
}

func (r *Registry) JoinRoom(sid core.SessionID, roomID domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return domain.ErrUnknownSession
	}
	e.Rooms[roomID] = struct{}{}
	if r.byRoom[roomID] == nil {
		r.byRoom[roomID] = make(map[core.SessionID]struct{})
	}
	r.byRoom[roomID][sid] = struct{}{}
	return nil
}

func (r *Registry) LeaveRoom(sid core.SessionID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return
	}
	delete(e.Rooms, roomID)
	delete(e.Media, roomID)
	r.dropFromRoom(roomID, sid)
}

// dropFromRoom must be called with the write lock held.
func (r *Registry) dropFromRoom(roomID domain.RoomID, sid core.SessionID) {
	if members, ok := r.byRoom[roomID]; ok {
		delete(members, sid)
		if len(members) == 0 {
			delete(r.byRoom, roomID)
		}
	}
}

// SessionsInRoom returns a snapshot of the sessions currently joined to a
// room. Lazily consistent with concurrent joins/leaves.
func (r *Registry) SessionsInRoom(roomID domain.RoomID) []core.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.byRoom[roomID]
	out := make([]core.SessionID, 0, len(members))
	for sid := range members {
		out = append(out, sid)
	}
	return out
}

func (r *Registry) SessionsForUser(uid domain.UserID) []core.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.SessionID, 0, len(r.byUser[uid]))
	for sid := range r.byUser[uid] {
		out = append(out, sid)
	}
	return out
}

func (r *Registry) IsUserOnline(uid domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[uid]) > 0
}

func (r *Registry) IsSessionKnown(sid core.SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[sid]
	return ok
}

func (r *Registry) Conn(sid core.SessionID) (core.OutboundConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (r *Registry) UserOf(sid core.SessionID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.UserID, true
	}
	return "", false
}

// InRoom reports whether the session is currently joined to the room.
func (r *Registry) InRoom(sid core.SessionID, roomID domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	_, joined := e.Rooms[roomID]
	return joined
}

func (r *Registry) RoomsOf(sid core.SessionID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	out := make([]domain.RoomID, 0, len(e.Rooms))
	for roomID := range e.Rooms {
		out = append(out, roomID)
	}
	return out
}

// SetMediaState records the session-local advisory media flags for a room.
func (r *Registry) SetMediaState(sid core.SessionID, roomID domain.RoomID, flags domain.MediaFlags) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.Media[roomID] = flags
	}
}

// Cancel fires the session's lifecycle cancel func, forcing its
// connection task to wind down. Used by the backpressure policy.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

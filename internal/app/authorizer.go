package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yellcord/realtime/internal/core"
	"github.com/yellcord/realtime/internal/domain"
)

type membershipKey struct {
	UserID domain.UserID
	RoomID domain.RoomID
}

type membershipCacheEntry struct {
	record   *domain.Membership // nil: confirmed non-member
	cachedAt time.Time
}

// Authorizer answers membership questions against the persistence
// collaborator. Results are cached read-through for a short TTL, which
// bounds how long a revoked membership can still be honored. Any
// erroring or ambiguous store call denies (fail-closed), after one
// retry with backoff.
type Authorizer struct {
	store core.Store
	ttl   time.Duration

	retryBackoff time.Duration

	mu    sync.RWMutex
	cache map[membershipKey]membershipCacheEntry
}

func NewAuthorizer(store core.Store, ttl time.Duration) *Authorizer {
	return &Authorizer{
		store:        store,
		ttl:          ttl,
		retryBackoff: 100 * time.Millisecond,
		cache:        make(map[membershipKey]membershipCacheEntry),
	}
}

func (a *Authorizer) IsMember(ctx context.Context, uid domain.UserID, roomID domain.RoomID) bool {
	rec, err := a.membership(ctx, uid, roomID)
	if err != nil {
		return false
	}
	return rec != nil
}

func (a *Authorizer) IsCreator(ctx context.Context, uid domain.UserID, roomID domain.RoomID) bool {
	rec, err := a.membership(ctx, uid, roomID)
	if err != nil {
		return false
	}
	return rec != nil && rec.Creator
}

func (a *Authorizer) membership(ctx context.Context, uid domain.UserID, roomID domain.RoomID) (*domain.Membership, error) {
	key := membershipKey{UserID: uid, RoomID: roomID}

	a.mu.RLock()
	entry, ok := a.cache[key]
	a.mu.RUnlock()
	if ok && a.ttl > 0 && time.Since(entry.cachedAt) < a.ttl {
		return entry.record, nil
	}

	rec, err := a.store.GetMembership(ctx, uid, roomID)
	if err != nil {
		// One retry with backoff for transient read failures, then deny.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.retryBackoff):
		}
		rec, err = a.store.GetMembership(ctx, uid, roomID)
		if err != nil {
			log.Warn().Err(err).Str("module", "app.authorizer").
				Str("user", string(uid)).Str("room", string(roomID)).
				Msg("membership lookup failed, denying")
			return nil, domain.ErrDependency
		}
	}

	a.mu.Lock()
	a.cache[key] = membershipCacheEntry{record: rec, cachedAt: time.Now()}
	a.mu.Unlock()
	return rec, nil
}

// Invalidate drops a cached record so the next check re-hits the store.
func (a *Authorizer) Invalidate(uid domain.UserID, roomID domain.RoomID) {
	a.mu.Lock()
	delete(a.cache, membershipKey{UserID: uid, RoomID: roomID})
	a.mu.Unlock()
}

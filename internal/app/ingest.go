package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/yellcord/realtime/internal/core"
	"github.com/yellcord/realtime/internal/domain"
)

// Ingest is the chat-message submission pipeline: validate, authorize,
// persist, then publish. A message is either fully persisted-and-broadcast
// or neither; broadcast never precedes persistence.
type Ingest struct {
	auth  *Authorizer
	store core.Store
	bus   *Broadcaster
}

func NewIngest(auth *Authorizer, store core.Store, bus *Broadcaster) *Ingest {
	return &Ingest{auth: auth, store: store, bus: bus}
}

type newMessageEvent struct {
	Type string `json:"type"`
	domain.Message
}

func (p *Ingest) Submit(ctx context.Context, uid domain.UserID, roomID domain.RoomID, content string) (*domain.Message, error) {
	if roomID == "" || strings.TrimSpace(content) == "" {
		return nil, domain.ErrValidation
	}
	if len(content) > domain.MaxContentLen {
		return nil, domain.ErrValidation
	}
	// A submission accepted here outlives its sender's connection:
	// authorization, persistence and broadcast proceed even if the sender
	// disconnects right after submitting.
	ctx = context.WithoutCancel(ctx)

	if !p.auth.IsMember(ctx, uid, roomID) {
		return nil, domain.ErrForbidden
	}

	msg, err := p.store.InsertMessage(ctx, roomID, uid, content)
	if err != nil {
		log.Error().Err(err).Str("module", "app.ingest").Str("room", string(roomID)).Str("user", string(uid)).Msg("message insert failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrDependency, err)
	}

	p.bus.Publish(roomID, newMessageEvent{Type: "new-message", Message: *msg})
	return msg, nil
}

package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/yellcord/realtime/internal/app"
	"github.com/yellcord/realtime/internal/auth"
	"github.com/yellcord/realtime/internal/config"
	"github.com/yellcord/realtime/internal/core"
	"github.com/yellcord/realtime/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller owns the realtime WebSocket endpoint. One instance serves
// all connections; per-connection state lives in session.
type Controller struct {
	cfg      *config.Config
	registry *app.Registry
	bus      *app.Broadcaster
	authz    *app.Authorizer
	calls    *app.CallRelay
	ingest   *app.Ingest
	store    core.Store
	verifier *auth.Verifier
}

func NewController(
	cfg *config.Config,
	registry *app.Registry,
	bus *app.Broadcaster,
	authz *app.Authorizer,
	calls *app.CallRelay,
	ingest *app.Ingest,
	store core.Store,
	verifier *auth.Verifier,
) *Controller {
	return &Controller{
		cfg:      cfg,
		registry: registry,
		bus:      bus,
		authz:    authz,
		calls:    calls,
		ingest:   ingest,
		store:    store,
		verifier: verifier,
	}
}

// HandleSocket upgrades the request and runs the connection to completion.
// Identity comes either from the cookie session (resolved by middleware
// into "user_id") or from a first-frame auth token within AuthTimeout.
func (ctl *Controller) HandleSocket(ctx context.Context, c *gin.Context) {
	wsc, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("upgrade failed")
		return
	}
	if ctl.cfg.ReadLimit > 0 {
		wsc.SetReadLimit(ctl.cfg.ReadLimit)
	}

	conn := newWSConn(wsc, ctl.cfg.SendBuffer)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	// Canceling the connection context (registry kick, shutdown) must
	// unblock the read loop.
	context.AfterFunc(ctx, conn.Close)

	sess := &session{
		ctl:    ctl,
		sid:    core.SessionID(uuid.NewString()),
		conn:   conn,
		cancel: cancel,
		media:  make(map[domain.RoomID]domain.MediaFlags),
	}
	log.Info().Str("module", "adapters.ws").Str("sid", string(sess.sid)).Msg("new connection")

	if uid := domain.UserID(c.GetString("user_id")); uid != "" {
		if err := sess.authenticate(ctx, uid); err != nil {
			sess.sendError(err)
			conn.Close()
			return
		}
	}

	go ctl.writePump(ctx, conn)
	sess.readLoop(ctx)
	sess.teardown()
}

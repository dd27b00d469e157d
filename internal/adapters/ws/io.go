package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ping := time.NewTicker(ctl.cfg.PingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("module", "adapters.ws").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("module", "adapters.ws").Msg("writePump write error")
				return
			}
		}
	}
}

// readLoop processes inbound frames serially: no two events from the
// same connection are handled concurrently, preserving per-connection
// ordering.
func (s *session) readLoop(ctx context.Context) {
	if s.state != stateAuthenticated {
		s.armAuthTimeout(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		_, data, err := s.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("module", "adapters.ws").Str("sid", string(s.sid)).Msg("read error")
			}
			return
		}
		if !s.dispatch(ctx, data) {
			return
		}
	}
}

// armAuthTimeout closes a connection that has not authenticated within
// the configured window.
func (s *session) armAuthTimeout(ctx context.Context) {
	timer := time.AfterFunc(s.ctl.cfg.AuthTimeout, func() {
		if s.ctl.registry.IsSessionKnown(s.sid) {
			return
		}
		log.Info().Str("module", "adapters.ws").Str("sid", string(s.sid)).Msg("auth timeout, closing")
		s.cancel()
	})
	context.AfterFunc(ctx, func() { timer.Stop() })
}

package httpapi

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yellcord/realtime/internal/adapters/ws"
	"github.com/yellcord/realtime/internal/app"
	"github.com/yellcord/realtime/internal/config"
)

// IdentityMiddleware resolves the cookie session laid down by the CRUD
// service into the request context. An absent identity is not an error
// here: the WS handshake still accepts a first-frame auth token.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		if uid, ok := sess.Get("user_id").(string); ok && uid != "" {
			c.Set("user_id", uid)
		}
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *ws.Controller, bus *app.Broadcaster) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("YellcordSession", store))
	r.Use(IdentityMiddleware())

	r.GET("/healthz", handleHealth)

	api := r.Group("/api")
	api.GET("/ws", func(c *gin.Context) {
		ctl.HandleSocket(ctx, c)
	})

	internal := api.Group("/internal")
	internal.Use(InternalSecretMiddleware(cfg.Secret))
	internal.POST("/rooms/:roomId/publish", handleInternalPublish(bus))

	log.Info().Str("module", "adapters.httpapi").Msg("router setup")
	return r
}

package httpapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yellcord/realtime/internal/app"
	"github.com/yellcord/realtime/internal/domain"
)

// InternalSecretMiddleware guards the server-to-server surface. The CRUD
// collaborator shares the configured secret.
func InternalSecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-Internal-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// handleInternalPublish fans out a server-originated event to a room, so
// REST mutations (message edits/deletes, room updates) still reach live
// clients. The event body is relayed as-is; only the type tag is required.
func handleInternalPublish(bus *app.Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := domain.RoomID(c.Param("roomId"))
		if roomID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "roomId required"})
			return
		}
		var event map[string]any
		if err := c.ShouldBindJSON(&event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event body"})
			return
		}
		if t, _ := event["type"].(string); t == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event type required"})
			return
		}
		n := bus.Publish(roomID, event)
		log.Info().Str("module", "adapters.httpapi").Str("room", string(roomID)).Int("delivered", n).Msg("internal publish")
		c.JSON(http.StatusOK, gin.H{"delivered": n})
	}
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

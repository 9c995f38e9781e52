package ws

import (
	"net/http"
	"slices"

	"avalon_webapp/internal/game"
	"avalon_webapp/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// NewUpgrader accepts any origin when allowedOrigins is empty.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
		},
	}
}

// HandleWS upgrades an authenticated request. credsOf extracts the
// session established by the HTTP middleware.
func HandleWS(hub *Hub, upgrader *websocket.Upgrader, credsOf func(*gin.Context) game.Credentials) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds := credsOf(c)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Debug("ws upgrade error", "code", creds.AccessCode, "error", err)
			return
		}

		client := NewClient(creds.AccessCode, creds.PlayerID, creds.Secret, conn, hub)
		go client.Run()
	}
}

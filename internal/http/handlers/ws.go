package handlers

import (
	"avalon_webapp/internal/game"
	"avalon_webapp/internal/http/middleware"
	"avalon_webapp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WS must be mounted behind middleware.Session.
func (h *Handler) WS(hub *ws.Hub, upgrader *websocket.Upgrader) gin.HandlerFunc {
	return ws.HandleWS(hub, upgrader, sessionCredentials)
}

func sessionCredentials(c *gin.Context) game.Credentials {
	return game.Credentials{
		AccessCode: c.GetString(middleware.KeyAccessCode),
		PlayerID:   c.GetString(middleware.KeyPlayerID),
		Secret:     c.GetString(middleware.KeySecret),
	}
}

package middleware

import (
	"net/http"
	"strings"

	"avalon_webapp/internal/game"
	"avalon_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

// Context keys set by Session.
const (
	KeyAccessCode = "access_code"
	KeySecret     = "secret"
	KeyPlayerID   = "player_id"
)

// Authenticator resolves a player secret within a game.
type Authenticator interface {
	Authenticate(code, secret string) (game.Credentials, error)
}

// Session accepts a session token from the Authorization header, or from
// the token query parameter for websocket upgrades. The token must belong
// to the game named in the path and carry a secret still seated there.
// Every failure past a missing token answers like an unknown game.
func Session(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		code, secret, err := service.ParseSessionJWT(token)
		if err != nil || code != game.NormalizeCode(c.Param("code")) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		creds, err := auth.Authenticate(code, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		c.Set(KeyAccessCode, creds.AccessCode)
		c.Set(KeySecret, creds.Secret)
		c.Set(KeyPlayerID, creds.PlayerID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
		return ""
	}
	return c.Query("token")
}

// AdminKey guards operator routes. An empty key disables them.
func AdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" || c.GetHeader("X-Admin-Key") != key {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.Next()
	}
}

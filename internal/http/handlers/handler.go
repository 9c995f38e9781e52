package handlers

import (
	"errors"
	"net/http"

	"avalon_webapp/internal/game"
	"avalon_webapp/internal/http/middleware"
	"avalon_webapp/internal/logger"
	"avalon_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Games         *service.GameService
	PublicBaseURL string
}

func NewHandler(games *service.GameService, publicBaseURL string) *Handler {
	return &Handler{Games: games, PublicBaseURL: publicBaseURL}
}

// conflicts are rejections caused by the game having moved on, as opposed
// to malformed requests.
var conflicts = []error{
	game.ErrNameTaken,
	game.ErrGameAlreadyStarted,
	game.ErrWrongPhase,
	game.ErrStaleAction,
	game.ErrNotYourTurn,
	game.ErrAlreadyVoted,
	game.ErrAlreadySubmitted,
}

// writeError maps service errors onto responses. Unknown games and unknown
// secrets look the same to the caller.
func writeError(c *gin.Context, err error) {
	switch {
	case game.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case game.IsValidation(err):
		status := http.StatusBadRequest
		for _, target := range conflicts {
			if errors.Is(err, target) {
				status = http.StatusConflict
				break
			}
		}
		c.JSON(status, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrCodeSpaceExhausted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no free access code, try again"})
	default:
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}

// session returns the access code and secret established by middleware.Session.
func session(c *gin.Context) (code, secret string) {
	return c.GetString(middleware.KeyAccessCode), c.GetString(middleware.KeySecret)
}

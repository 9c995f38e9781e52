package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"avalon_webapp/internal/game"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

// JoinURL is the link other players open to join the game.
func (h *Handler) JoinURL(code string) string {
	base := strings.TrimRight(h.PublicBaseURL, "/")
	return base + "/join?code=" + url.QueryEscape(code)
}

// JoinQR renders the join link of an existing game as a PNG.
func (h *Handler) JoinQR(c *gin.Context) {
	g, err := h.Games.Directory().Get(c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	if g.Phase() != game.PhaseLobby {
		writeError(c, game.ErrGameAlreadyStarted)
		return
	}

	png, err := qrcode.Encode(h.JoinURL(g.Code()), qrcode.Medium, qrSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

package handlers

import (
	"errors"
	"io"
	"net/http"

	"avalon_webapp/internal/game"

	"github.com/gin-gonic/gin"
)

type NameRequest struct {
	Name string `json:"name" binding:"required"`
}

type SlotRequest struct {
	Round    int `json:"round" binding:"required,min=1"`
	Proposal int `json:"proposal" binding:"required,min=1"`
}

type MemberRequest struct {
	SlotRequest
	PlayerID string `json:"player_id" binding:"required"`
}

type ProposeRequest struct {
	SlotRequest
	Members []string `json:"members" binding:"required"`
}

type VoteRequest struct {
	SlotRequest
	Approve *bool `json:"approve" binding:"required"`
}

type MissionRequest struct {
	Round   int   `json:"round" binding:"required,min=1"`
	Success *bool `json:"success" binding:"required"`
}

type AssassinateRequest struct {
	Target string `json:"target" binding:"required"`
}

// CreateGame opens a lobby and seats its creator.
func (h *Handler) CreateGame(c *gin.Context) {
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.Games.CreateGame(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) JoinGame(c *gin.Context) {
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.Games.JoinGame(c.Request.Context(), c.Param("code"), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetGame(c *gin.Context) {
	code, secret := session(c)
	view, err := h.Games.GetGameView(c.Request.Context(), code, secret)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) LeaveGame(c *gin.Context) {
	code, secret := session(c)
	if err := h.Games.LeaveGame(c.Request.Context(), code, secret); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) StartGame(c *gin.Context) {
	// an empty body starts with no optional roles
	var req game.StartConfig
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	code, secret := session(c)
	if err := h.Games.StartGame(c.Request.Context(), code, secret, req); err != nil {
		writeError(c, err)
		return
	}
	h.respondView(c)
}

func (h *Handler) MarkReady(c *gin.Context) {
	code, secret := session(c)
	begun, err := h.Games.MarkReady(c.Request.Context(), code, secret)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "round_started": begun})
}

func (h *Handler) ChooseMember(c *gin.Context) {
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	code, secret := session(c)
	if err := h.Games.ChooseMember(c.Request.Context(), code, secret, req.Round, req.Proposal, req.PlayerID); err != nil {
		writeError(c, err)
		return
	}
	h.respondView(c)
}

func (h *Handler) RemoveMember(c *gin.Context) {
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	code, secret := session(c)
	if err := h.Games.RemoveMember(c.Request.Context(), code, secret, req.Round, req.Proposal, req.PlayerID); err != nil {
		writeError(c, err)
		return
	}
	h.respondView(c)
}

func (h *Handler) SubmitTeam(c *gin.Context) {
	var req SlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	code, secret := session(c)
	if err := h.Games.SubmitTeam(c.Request.Context(), code, secret, req.Round, req.Proposal); err != nil {
		writeError(c, err)
		return
	}
	h.respondView(c)
}

func (h *Handler) ProposeTeam(c *gin.Context) {
	var req ProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	code, secret := session(c)
	if err := h.Games.ProposeTeam(c.Request.Context(), code, secret, req.Round, req.Proposal, req.Members); err != nil {
		writeError(c, err)
		return
	}
	h.respondView(c)
}

func (h *Handler) CastVote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	code, secret := session(c)
	out, err := h.Games.CastVote(c.Request.Context(), code, secret, req.Round, req.Proposal, *req.Approve)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) SubmitMission(c *gin.Context) {
	var req MissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	code, secret := session(c)
	out, err := h.Games.SubmitMission(c.Request.Context(), code, secret, req.Round, *req.Success)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Assassinate(c *gin.Context) {
	var req AssassinateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	code, secret := session(c)
	out, err := h.Games.Assassinate(c.Request.Context(), code, secret, req.Target)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ForceResolve is mounted behind middleware.AdminKey.
func (h *Handler) ForceResolve(c *gin.Context) {
	out, err := h.Games.ForceResolve(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) respondView(c *gin.Context) {
	code, secret := session(c)
	view, err := h.Games.GetGameView(c.Request.Context(), code, secret)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

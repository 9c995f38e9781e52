package ws

import (
	"context"
	"sync"
	"time"

	"avalon_webapp/internal/game"
	"avalon_webapp/internal/logger"
)

// GameService is the part of the game service the websocket layer drives.
type GameService interface {
	GetGameView(ctx context.Context, code, secret string) (game.GameView, error)
	MarkReady(ctx context.Context, code, secret string) (bool, error)
	ChooseMember(ctx context.Context, code, secret string, round, proposal int, playerID string) error
	RemoveMember(ctx context.Context, code, secret string, round, proposal int, playerID string) error
	SubmitTeam(ctx context.Context, code, secret string, round, proposal int) error
	ProposeTeam(ctx context.Context, code, secret string, round, proposal int, members []string) error
	CastVote(ctx context.Context, code, secret string, round, proposal int, approve bool) (game.VoteOutcome, error)
	SubmitMission(ctx context.Context, code, secret string, round int, success bool) (game.MissionOutcome, error)
	Assassinate(ctx context.Context, code, secret, targetID string) (game.Outcome, error)
}

// Hub groups live connections by access code and pushes each viewer its
// own rendering of the game whenever the game changes.
type Hub struct {
	games GameService

	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewHub(games GameService) *Hub {
	return &Hub{
		games: games,
		rooms: make(map[string]*Room),
	}
}

// Register attaches c to its game's room and sends the current view.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.Code]
	if !ok {
		room = NewRoom(c.Code)
		h.rooms[c.Code] = room
	}
	room.add(c)
	h.mu.Unlock()

	logger.Debug("ws client registered", "code", c.Code, "player_id", c.PlayerID)
	h.pushView(room, c)
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[c.Code]
	if !ok {
		return
	}
	room.remove(c)
	if room.empty() {
		delete(h.rooms, c.Code)
	}
}

// GameChanged renders and pushes a fresh view to every connection of the game.
func (h *Hub) GameChanged(code string) {
	room := h.room(code)
	if room == nil {
		return
	}
	for _, c := range room.members() {
		h.pushView(room, c)
	}
}

// GameClosed tells every connection the game is gone and drops them.
func (h *Hub) GameClosed(code string) {
	h.mu.Lock()
	room, ok := h.rooms[code]
	delete(h.rooms, code)
	h.mu.Unlock()
	if !ok {
		return
	}

	msg := encode(MsgClosed, nil)
	for _, c := range room.members() {
		room.deliver(c, msg)
		room.remove(c)
	}
}

// Connections reports how many clients are attached to a game.
func (h *Hub) Connections(code string) int {
	room := h.room(code)
	if room == nil {
		return 0
	}
	return len(room.members())
}

func (h *Hub) room(code string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[code]
}

func (h *Hub) pushView(room *Room, c *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	view, err := h.games.GetGameView(ctx, c.Code, c.Secret)
	if err != nil {
		// seat reclaimed under a new secret, or the game is gone
		room.deliver(c, encode(MsgError, ErrorPayload{Message: "session ended"}))
		h.Unregister(c)
		return
	}
	room.deliverView(c, view.Version, encode(MsgView, view))
}

package ws

import (
	"sync"

	"avalon_webapp/internal/logger"
)

// Room holds the connections watching one game.
type Room struct {
	Code string

	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewRoom(code string) *Room {
	return &Room{
		Code:    code,
		clients: make(map[*Client]struct{}),
	}
}

func (r *Room) add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
}

// remove detaches c and closes its send queue, which ends its write pump.
func (r *Room) remove(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; !ok {
		return
	}
	delete(r.clients, c)
	close(c.Send)
}

func (r *Room) empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients) == 0
}

func (r *Room) members() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		out = append(out, c)
	}
	return out
}

// deliverView queues a rendered view unless c was already sent the same or
// a newer version. Renders run outside the lock, so two concurrent changes
// can finish in either order.
func (r *Room) deliverView(c *Client, version uint64, msg []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.viewed && version <= c.viewVersion {
		return
	}
	if r.queue(c, msg) {
		c.viewed, c.viewVersion = true, version
	}
}

// deliver queues msg for c. A client whose queue is full is too slow to
// follow the game and gets dropped.
func (r *Room) deliver(c *Client, msg []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue(c, msg)
}

func (r *Room) queue(c *Client, msg []byte) bool {
	if _, ok := r.clients[c]; !ok {
		return false
	}
	select {
	case c.Send <- msg:
		return true
	default:
		logger.Warn("ws send queue full, dropping client", "code", r.Code, "player_id", c.PlayerID)
		delete(r.clients, c)
		close(c.Send)
		return false
	}
}

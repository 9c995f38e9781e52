package ws

import (
	"time"

	"avalon_webapp/internal/logger"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	maxMessageSize = 4096
	sendQueueSize  = 64

	// inbound actions per second, with a small burst
	actionRate  = 5
	actionBurst = 10
)

type Client struct {
	Code     string
	PlayerID string
	Secret   string
	Conn     *websocket.Conn
	Send     chan []byte

	Hub     *Hub
	limiter *rate.Limiter

	// newest view version queued, guarded by the room
	viewed      bool
	viewVersion uint64
}

func NewClient(code, playerID, secret string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		Code:     code,
		PlayerID: playerID,
		Secret:   secret,
		Conn:     conn,
		Send:     make(chan []byte, sendQueueSize),
		Hub:      hub,
		limiter:  rate.NewLimiter(actionRate, actionBurst),
	}
}

// Run serves the connection until it closes.
func (c *Client) Run() {
	go c.writePump()
	c.Hub.Register(c)
	c.readPump()
}

//read
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "code", c.Code, "player_id", c.PlayerID, "error", err)
			}
			return
		}
		if !c.limiter.Allow() {
			c.reply(MsgError, ErrorPayload{Message: "too many messages"})
			continue
		}
		c.handle(msg)
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write error", "code", c.Code, "player_id", c.PlayerID, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reply queues a message for this client only.
func (c *Client) reply(msgType string, payload any) {
	if room := c.Hub.room(c.Code); room != nil {
		room.deliver(c, encode(msgType, payload))
	}
}

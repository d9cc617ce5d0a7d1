package hub

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/hallway-live/room-service/internal/config"
	"github.com/hallway-live/room-service/pkg/log"
)

// Client is one websocket connection with its buffered outbound queue.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	cfg  config.WebSocketConfig
}

func NewClient(id string, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, 256),
		cfg:  cfg,
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send queues a frame for delivery. Drops the frame when the client's
// buffer is full so a slow reader never blocks the room actor.
func (c *Client) Send(data []byte) {
	select {
	case c.send <- data:
	default:
		logger := log.L()
		logger.Warn().Str(log.FieldConnID, c.id).Msg("send buffer full, dropping frame")
	}
}

// ReadPump reads frames until the connection drops, passing each to
// onFrame, then calls onClose exactly once. Runs in its own goroutine.
func (c *Client) ReadPump(onFrame func(data []byte), onClose func()) {
	defer func() {
		onClose()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger := log.L()
				logger.Debug().Err(err).Str(log.FieldConnID, c.id).Msg("websocket read error")
			}
			break
		}

		onFrame(message)
	}
}

// WritePump drains the send queue onto the wire and keeps the connection
// alive with periodic pings. Runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package ws

import (
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/RazaAli313/clubchat/internal/domain"
	"github.com/RazaAli313/clubchat/internal/metrics"
)

const (
	readLimit    = 64 * 1024
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

// Client is one connected viewer of a conversation. The server only
// pushes; inbound frames beyond pongs are discarded.
type Client struct {
	conn *websocket.Conn
	send chan domain.Message
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn, send: make(chan domain.Message, 256)}
}

func (c *Client) Send(m domain.Message) {
	select {
	case c.send <- m:
	default:
		// drop if blocked
	}
}

// Serve runs the write pump in the calling goroutine and the read pump
// in a second one; it returns when the connection dies.
func (c *Client) Serve(hub *Hub, conversationID domain.ConversationID) {
	hub.Register(conversationID, c)
	metrics.WSConnections.Inc()
	defer func() {
		hub.Unregister(conversationID, c)
		metrics.WSConnections.Dec()
		_ = c.conn.Close()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.readPump()
	}()
	c.writePump(done)
}

func (c *Client) readPump() {
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump(done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case m := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(m); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}

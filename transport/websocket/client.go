package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Client represents one WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	// done signals writePump shutdown. The send channel is never
	// closed: broadcasts race with disconnects, and a send on a closed
	// channel would panic the process.
	done chan struct{}
	id   string
}

// ID returns the opaque per-connection identifier.
func (c *Client) ID() string {
	return c.id
}

// readPump pumps messages from the WebSocket connection into the hub's
// message handler. It runs in its own goroutine per connection; exit
// triggers unregistration and the disconnect notification.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().Err(err).Str("connID", c.id).Msg("websocket read error")
			}
			break
		}

		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			c.hub.logger.Debug().Err(err).Str("connID", c.id).Msg("malformed frame skipped")
			continue
		}
		if env.Event == "" {
			continue
		}

		if handler := c.hub.onMessage; handler != nil {
			handler(c.id, env.Event, env.Data)
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection and
// keeps the connection alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

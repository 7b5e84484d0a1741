package websocket

import (
	"encoding/json"
	"time"

	"talkwrite-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Content trees for large documents can run well past typical chat-size
	// frames.
	maxMessageSize = 1 << 20

	sendBufferSize = 64
)

// Client is one websocket connection bound to a room. A user editing the
// same document in two tabs holds two Clients.
type Client struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	Email      string
	DocumentId uint

	Conn *websocket.Conn
	Send chan []byte

	hub    *Hub
	logger logger.ILogger
}

func NewClient(hub *Hub, conn *websocket.Conn, userId uuid.UUID, email string, documentId uint, log logger.ILogger) *Client {
	return &Client{
		Id:         uuid.New(),
		UserId:     userId,
		Email:      email,
		DocumentId: documentId,
		Conn:       conn,
		Send:       make(chan []byte, sendBufferSize),
		hub:        hub,
		logger:     log,
	}
}

// ReadPump pumps messages from the websocket connection to the hub. It runs
// in a per-connection goroutine and unregisters the client when the
// connection drops for any reason.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"connection_id": c.Id,
					"error":         err.Error(),
				})
			}
			break
		}
		c.handleMessage(data)
	}
}

// handleMessage dispatches one inbound frame. Unknown events and malformed
// frames are dropped without tearing down the connection.
func (c *Client) handleMessage(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Warn("Client", "Dropping malformed frame", map[string]interface{}{
			"connection_id": c.Id,
			"error":         err.Error(),
		})
		return
	}

	switch env.Event {
	case EventSendChanges:
		c.hub.Relay(c, env.Payload)
	default:
		c.logger.Warn("Client", "Dropping unknown event", map[string]interface{}{
			"connection_id": c.Id,
			"event":         env.Event,
		})
	}
}

// WritePump pumps messages from the Send channel to the websocket connection
// and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// MessageHandler receives every decoded frame from the document room.
type MessageHandler func(event string, payload json.RawMessage)

// Transport is the controller's connection to a document room. Connect is
// one-shot; after Close the transport is spent.
type Transport interface {
	Connect(ctx context.Context, onMessage MessageHandler) error
	Send(event string, payload interface{}) error
	Close() error
}

type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// wsTransport speaks the room protocol over a single websocket connection.
// The access token and document id travel as handshake query parameters.
type wsTransport struct {
	serverURL   string
	documentId  uint
	accessToken string

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}
}

func NewWebsocketTransport(serverURL string, documentId uint, accessToken string) Transport {
	return &wsTransport{
		serverURL:   serverURL,
		documentId:  documentId,
		accessToken: accessToken,
	}
}

func (t *wsTransport) Connect(ctx context.Context, onMessage MessageHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	u, err := url.Parse(t.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}
	q := u.Query()
	q.Set("documentId", fmt.Sprintf("%d", t.documentId))
	q.Set("accessToken", t.accessToken)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial room: %w", err)
	}

	t.conn = conn
	t.done = make(chan struct{})

	go t.readLoop(conn, t.done, onMessage)
	return nil
}

func (t *wsTransport) readLoop(conn *websocket.Conn, done chan struct{}, onMessage MessageHandler) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		onMessage(env.Event, env.Payload)
	}
}

func (t *wsTransport) Send(event string, payload interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return fmt.Errorf("transport not connected")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope{Event: event, Payload: raw})
	if err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	done := t.done
	t.conn = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := conn.Close()
	if done != nil {
		<-done
	}
	return err
}

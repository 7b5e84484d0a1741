package websocket

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"talkwrite-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub owns room membership: the mapping from documentId to the set of live
// connections editing that document. Joins and leaves are serialized through
// the Run loop so every presence broadcast reflects a consistent snapshot.
type Hub struct {
	// Rooms map: DocumentID -> set of member connections
	rooms map[uint]map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access from Relay, which runs on reader goroutines
	mu sync.RWMutex

	// Redis connection for cross-instance fan-out
	rdb *redis.Client

	// Identifies this instance on the Redis channel so it can skip its own
	// publications
	instanceId string

	logger logger.ILogger
}

const clusterChannel = "room_events"

// clusterMessage is the Redis payload mirroring a relay or presence
// broadcast to other server instances hosting members of the same room.
type clusterMessage struct {
	InstanceId string          `json:"instance_id"`
	DocumentId uint            `json:"document_id"`
	ExcludeId  string          `json:"exclude_id,omitempty"`
	Message    json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		rooms:      make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
		instanceId: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[client.DocumentId]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[client.DocumentId] = room
			}
			room[client] = true
			h.mu.Unlock()

			h.logger.Info("Hub", "Client joined room", map[string]interface{}{
				"connection_id": client.Id,
				"document_id":   client.DocumentId,
				"email":         client.Email,
			})
			h.broadcastPresence(client.DocumentId)

		case client := <-h.unregister:
			h.mu.Lock()
			room, ok := h.rooms[client.DocumentId]
			if ok && room[client] {
				delete(room, client)
				close(client.Send)
				if len(room) == 0 {
					delete(h.rooms, client.DocumentId)
				}
			}
			h.mu.Unlock()

			if ok {
				h.logger.Info("Hub", "Client left room", map[string]interface{}{
					"connection_id": client.Id,
					"document_id":   client.DocumentId,
				})
				h.broadcastPresence(client.DocumentId)
			}
		}
	}
}

// Register admits a connection into its document's room and triggers a
// presence broadcast. The caller must have completed the admission handshake.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a connection, discarding the room if it became empty.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Relay fans an edit event out to every member of the source's room except
// the source itself. The payload is an opaque serialized content tree and is
// delivered unmodified. A failed delivery to one member never aborts the
// others.
func (h *Hub) Relay(source *Client, payload json.RawMessage) {
	data, err := json.Marshal(Envelope{Event: EventReceiveChanges, Payload: payload})
	if err != nil {
		h.logger.Error("Hub", "Failed to frame relay message", map[string]interface{}{"error": err.Error()})
		return
	}

	// Delivery stays under the read lock: the unregister path closes Send
	// under the write lock, so a send can never race the close.
	h.mu.RLock()
	for client := range h.rooms[source.DocumentId] {
		if client == source {
			continue
		}
		h.deliver(client, data)
	}
	h.mu.RUnlock()

	h.publishToCluster(source.DocumentId, source.Id.String(), data)
}

// Presence returns the identities currently in a room, deduplicated and
// sorted. Exposed for the admission handler and for diagnostics.
func (h *Hub) Presence(documentId uint) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]bool)
	identities := make([]string, 0)
	for client := range h.rooms[documentId] {
		if !seen[client.Email] {
			seen[client.Email] = true
			identities = append(identities, client.Email)
		}
	}
	sort.Strings(identities)
	return identities
}

// broadcastPresence sends the full member identity list to every member of
// the room, including whoever just joined or left.
func (h *Hub) broadcastPresence(documentId uint) {
	identities := h.Presence(documentId)

	data, err := marshalEnvelope(EventCurrentUsersUpdate, identities)
	if err != nil {
		h.logger.Error("Hub", "Failed to frame presence message", map[string]interface{}{"error": err.Error()})
		return
	}

	h.mu.RLock()
	for client := range h.rooms[documentId] {
		h.deliver(client, data)
	}
	h.mu.RUnlock()

	h.publishToCluster(documentId, "", data)
}

// deliver performs a non-blocking send; a member with a full buffer is
// considered dead and is reaped. Callers hold h.mu so the send is mutually
// exclusive with the channel close in Run's unregister path.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{
			"connection_id": client.Id,
			"document_id":   client.DocumentId,
		})
		go h.Unregister(client)
	}
}

func (h *Hub) publishToCluster(documentId uint, excludeId string, data []byte) {
	if h.rdb == nil {
		return
	}
	payload, err := json.Marshal(clusterMessage{
		InstanceId: h.instanceId,
		DocumentId: documentId,
		ExcludeId:  excludeId,
		Message:    data,
	})
	if err != nil {
		return
	}
	if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Failed to publish to Redis", map[string]interface{}{"error": err.Error()})
	}
}

// subscribeToRedis mirrors room traffic from other instances onto local
// members. Messages published by this instance are skipped.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Malformed cluster message", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.InstanceId == h.instanceId {
			continue
		}

		h.mu.RLock()
		for client := range h.rooms[payload.DocumentId] {
			if payload.ExcludeId != "" && client.Id.String() == payload.ExcludeId {
				continue
			}
			h.deliver(client, payload.Message)
		}
		h.mu.RUnlock()
	}
}

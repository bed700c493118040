package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The phone controller is served from a different origin than
		// the relay, so cross-origin upgrades are expected.
		return true
	},
}

// Envelope is the wire format for both inbound and outbound messages.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outEnvelope carries an arbitrary payload for outbound marshaling.
type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// MessageHandler receives each decoded inbound event.
type MessageHandler func(connID, event string, data []byte)

// DisconnectHandler is invoked once per connection after it has been
// removed from the hub and all of its rooms.
type DisconnectHandler func(connID string)

// Hub maintains the set of active connections and their room membership,
// and fans outbound events out to rooms.
type Hub struct {
	conns map[string]*Client
	rooms map[string]map[string]*Client
	mu    sync.RWMutex

	onMessage    MessageHandler
	onDisconnect DisconnectHandler

	logger zerolog.Logger
}

// NewHub creates a hub with no connections.
func NewHub(logger *zerolog.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]*Client),
		rooms:  make(map[string]map[string]*Client),
		logger: logger.With().Str("component", "ws-hub").Logger(),
	}
}

// SetHandlers wires inbound dispatch and disconnect notification. It must
// be called before the hub starts serving connections.
func (h *Hub) SetHandlers(onMessage MessageHandler, onDisconnect DisconnectHandler) {
	h.onMessage = onMessage
	h.onDisconnect = onDisconnect
}

// ServeWS upgrades an HTTP request and registers the resulting connection.
// The connection stays unbound to any room until it joins a session.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
		id:   uuid.NewString(),
	}

	h.register(client)

	go client.writePump()
	go client.readPump()
}

// Join adds a connection to a room. Joining the same room twice is a
// no-op; a connection may be in more than one room if it rejoined with a
// different session ID.
func (h *Hub) Join(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.conns[connID]
	if !ok {
		return
	}

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][connID] = client

	h.logger.Debug().
		Str("connID", connID).
		Str("roomID", roomID).
		Int("members", len(h.rooms[roomID])).
		Msg("connection joined room")
}

// Broadcast sends an event to every member of a room, excluding
// excludeConnID when it is non-empty. Delivery is best-effort: a client
// whose send buffer is full is dropped.
func (h *Hub) Broadcast(roomID, event string, payload any, excludeConnID string) {
	data, err := json.Marshal(outEnvelope{Event: event, Data: payload})
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("failed to marshal broadcast")
		return
	}

	h.mu.RLock()
	members := h.rooms[roomID]
	targets := make([]*Client, 0, len(members))
	for id, client := range members {
		if id != excludeConnID {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		select {
		case client.send <- data:
		default:
			// Client's send buffer is full, drop the connection.
			h.unregister(client)
		}
	}
}

// RoomSize returns the number of connections currently in a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// register adds a freshly upgraded connection to the hub.
func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.conns[client.id] = client
	total := len(h.conns)
	h.mu.Unlock()

	h.logger.Debug().
		Str("connID", client.id).
		Int("total", total).
		Msg("connection registered")
}

// unregister removes a connection from the hub and every room it joined,
// then notifies the disconnect handler. Safe to call more than once per
// client; only the first call has any effect.
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.conns[client.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, client.id)

	for roomID, members := range h.rooms {
		if _, ok := members[client.id]; ok {
			delete(members, client.id)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}

	// Shut the write pump down via done rather than closing send: a
	// concurrent Broadcast may still hold a reference to this client,
	// and sending on a closed channel would panic.
	close(client.done)
	h.mu.Unlock()

	h.logger.Debug().Str("connID", client.id).Msg("connection unregistered")

	if h.onDisconnect != nil {
		h.onDisconnect(client.id)
	}
}

package relay

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/padlink/padlink/session"
)

// Broadcaster is the room capability the transport layer provides. Join
// adds a connection to a room; Broadcast fans an event out to every room
// member, optionally excluding one connection (the sender).
type Broadcaster interface {
	Join(connID, roomID string)
	Broadcast(roomID, event string, payload any, excludeConnID string)
}

// binding associates a live connection with its session and role, valid
// from join until disconnect.
type binding struct {
	sessionID string
	role      Role
}

// Engine owns the connection binding table and routes inbound events to
// the correct session room.
type Engine struct {
	registry *session.Registry
	rooms    Broadcaster

	bindings map[string]binding
	mu       sync.Mutex

	logger zerolog.Logger
}

// Config carries the engine's dependencies.
type Config struct {
	Registry *session.Registry
	Rooms    Broadcaster
	Logger   *zerolog.Logger
}

// NewEngine creates a relay engine with an empty binding table.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		registry: cfg.Registry,
		rooms:    cfg.Rooms,
		bindings: make(map[string]binding),
		logger:   cfg.Logger.With().Str("component", "relay").Logger(),
	}
}

// Dispatch handles one inbound event from a connection. It is safe to call
// concurrently across connections. Unknown events and malformed payloads
// are logged and dropped; nothing here can fail the process.
func (e *Engine) Dispatch(connID, event string, data []byte) {
	switch event {
	case EventJoinSession:
		e.handleJoin(connID, data)
	case EventControl:
		e.handleControl(connID, data)
	case EventStartGame:
		e.handleStartGame(connID, data)
	case EventEndGame:
		e.handleEndGame(connID, data)
	case EventScoreUpdate:
		e.handleScoreUpdate(connID, data)
	case EventRestartGame:
		e.handleRestartGame(connID, data)
	default:
		e.logger.Debug().
			Str("connID", connID).
			Str("event", event).
			Msg("unknown event dropped")
	}
}

// HandleDisconnect removes the connection's binding, exactly once. If the
// departed connection was a controller, the remaining room members are
// notified. Connections that never joined disconnect freely.
func (e *Engine) HandleDisconnect(connID string) {
	e.mu.Lock()
	b, bound := e.bindings[connID]
	if bound {
		delete(e.bindings, connID)
	}
	e.mu.Unlock()

	if !bound {
		return
	}

	e.logger.Debug().
		Str("connID", connID).
		Str("sessionID", b.sessionID).
		Str("role", string(b.role)).
		Msg("connection unbound")

	if b.role == RoleController {
		e.rooms.Broadcast(b.sessionID, EventControllerDisconnected, emptyEvent{}, "")
	}
}

func (e *Engine) handleJoin(connID string, data []byte) {
	var p joinPayload
	if !e.decode(connID, EventJoinSession, data, &p) {
		return
	}
	if p.SessionID == "" {
		e.reject(connID, EventJoinSession, "missing sessionId")
		return
	}

	role := ParseRole(p.Role)

	// Joining the room is idempotent; a second join from the same
	// connection overwrites its binding (last join wins).
	e.rooms.Join(connID, p.SessionID)

	e.mu.Lock()
	e.bindings[connID] = binding{sessionID: p.SessionID, role: role}
	e.mu.Unlock()

	switch role {
	case RoleController:
		name := p.Name
		if name == "" {
			name = defaultPlayerName
		}
		e.registry.AddMember(p.SessionID, session.Member{Role: string(role), Name: name})
		e.rooms.Broadcast(p.SessionID, EventPlayerJoined, playerJoinedEvent{Name: name}, "")
	case RoleDesktop:
		e.registry.AddMember(p.SessionID, session.Member{Role: string(role)})
		e.rooms.Broadcast(p.SessionID, EventDesktopReady, desktopReadyEvent{SessionID: p.SessionID}, "")
	default:
		// Unrecognized roles bind silently with no broadcast.
		e.registry.Touch(p.SessionID)
	}

	e.logger.Debug().
		Str("connID", connID).
		Str("sessionID", p.SessionID).
		Str("role", p.Role).
		Msg("connection joined session")
}

func (e *Engine) handleControl(connID string, data []byte) {
	var p controlPayload
	if !e.decode(connID, EventControl, data, &p) {
		return
	}
	if p.SessionID == "" {
		e.reject(connID, EventControl, "missing sessionId")
		return
	}
	if len(p.Direction) == 0 {
		e.reject(connID, EventControl, "missing direction")
		return
	}

	e.registry.Touch(p.SessionID)
	e.rooms.Broadcast(p.SessionID, EventControl, controlEvent{Direction: p.Direction}, connID)
}

func (e *Engine) handleStartGame(connID string, data []byte) {
	var p sessionPayload
	if !e.decode(connID, EventStartGame, data, &p) {
		return
	}
	if p.SessionID == "" {
		e.reject(connID, EventStartGame, "missing sessionId")
		return
	}

	e.registry.SetStatus(p.SessionID, session.StatusActive)
	e.rooms.Broadcast(p.SessionID, EventGameStarted, emptyEvent{}, "")
}

func (e *Engine) handleEndGame(connID string, data []byte) {
	var p scorePayload
	if !e.decode(connID, EventEndGame, data, &p) {
		return
	}
	if p.SessionID == "" {
		e.reject(connID, EventEndGame, "missing sessionId")
		return
	}

	e.registry.SetStatus(p.SessionID, session.StatusEnded)
	e.rooms.Broadcast(p.SessionID, EventGameEnded, scoreEvent{Score: p.Score, Coins: p.Coins}, "")
}

func (e *Engine) handleScoreUpdate(connID string, data []byte) {
	var p scorePayload
	if !e.decode(connID, EventScoreUpdate, data, &p) {
		return
	}
	if p.SessionID == "" {
		e.reject(connID, EventScoreUpdate, "missing sessionId")
		return
	}

	e.registry.Touch(p.SessionID)
	e.rooms.Broadcast(p.SessionID, EventScoreUpdate, scoreEvent{Score: p.Score, Coins: p.Coins}, connID)
}

func (e *Engine) handleRestartGame(connID string, data []byte) {
	var p sessionPayload
	if !e.decode(connID, EventRestartGame, data, &p) {
		return
	}
	if p.SessionID == "" {
		e.reject(connID, EventRestartGame, "missing sessionId")
		return
	}

	e.registry.SetStatus(p.SessionID, session.StatusActive)
	e.rooms.Broadcast(p.SessionID, EventRestartGame, emptyEvent{}, connID)
}

// decode unmarshals an inbound payload, treating failure as a client
// protocol violation: the event is dropped, no response is sent back.
func (e *Engine) decode(connID, event string, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		e.logger.Debug().
			Err(err).
			Str("connID", connID).
			Str("event", event).
			Msg("malformed payload dropped")
		return false
	}
	return true
}

func (e *Engine) reject(connID, event, reason string) {
	e.logger.Debug().
		Str("connID", connID).
		Str("event", event).
		Str("reason", reason).
		Msg("event rejected")
}

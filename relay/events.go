package relay

import "encoding/json"

// Client → server event names.
const (
	EventJoinSession = "join_session"
	EventControl     = "control"
	EventStartGame   = "start_game"
	EventEndGame     = "end_game"
	EventScoreUpdate = "score_update"
	EventRestartGame = "restart_game"
)

// Server → client event names.
const (
	EventPlayerJoined           = "player_joined"
	EventDesktopReady           = "desktop_ready"
	EventGameStarted            = "game_started"
	EventGameEnded              = "game_ended"
	EventControllerDisconnected = "controller_disconnected"
)

// defaultPlayerName is used when a controller joins without a name.
const defaultPlayerName = "Player"

// Role is the participant kind of a connection within a session.
type Role string

const (
	RoleDesktop    Role = "desktop"
	RoleController Role = "controller"
	RoleUnknown    Role = ""
)

// ParseRole maps the wire role string onto the closed role enum. Anything
// unrecognized becomes RoleUnknown, which binds silently and triggers no
// join broadcast.
func ParseRole(s string) Role {
	switch s {
	case string(RoleDesktop):
		return RoleDesktop
	case string(RoleController):
		return RoleController
	default:
		return RoleUnknown
	}
}

// Inbound payloads. Every event carries the session ID it is scoped to.

type joinPayload struct {
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
	Name      string `json:"name"`
}

type controlPayload struct {
	SessionID string `json:"sessionId"`
	// Direction is forwarded opaquely; its value and type are not
	// interpreted at this layer.
	Direction json.RawMessage `json:"direction"`
}

type scorePayload struct {
	SessionID string `json:"sessionId"`
	Score     int    `json:"score"`
	Coins     int    `json:"coins"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
}

// Outbound payloads.

type playerJoinedEvent struct {
	Name string `json:"name"`
}

type desktopReadyEvent struct {
	SessionID string `json:"sessionId"`
}

type controlEvent struct {
	Direction json.RawMessage `json:"direction"`
}

type scoreEvent struct {
	Score int `json:"score"`
	Coins int `json:"coins"`
}

// emptyEvent marshals to {} for events whose payload is empty.
type emptyEvent struct{}

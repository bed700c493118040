// Package websocket provides the WebSocket transport for the PadLink relay.
//
// The websocket package implements:
//   - Real-time bidirectional communication
//   - Room membership keyed by session ID
//   - Room-scoped broadcast with optional sender exclusion
//   - Connection lifecycle management and disconnect notification
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub tracks all
// connections and their room membership. Each client connection is handled
// by a dedicated pair of goroutines managing reading, writing, and cleanup.
//
// Message Protocol:
//
// Both directions use a JSON envelope:
//   - Incoming: {"event": "join_session", "data": {"sessionId": "ab12cd34", "role": "controller"}}
//   - Outgoing: {"event": "player_joined", "data": {"name": "Ana"}}
//
// Connections register unbound; room membership is established when the
// relay engine processes a join event and calls Hub.Join. Decoded inbound
// events are handed to the configured MessageHandler, and connection
// teardown invokes the DisconnectHandler after the client has left its
// rooms.
//
// Concurrency:
//
// Hub methods are safe for concurrent use. Broadcast snapshots the room
// membership under the lock and performs sends outside it, so a slow room
// never blocks concurrent joins.
package websocket

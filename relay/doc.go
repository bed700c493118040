// Package relay routes events between the members of a session room.
//
// The relay package implements:
//   - Binding of each live connection to one (session, role) pair
//   - Event dispatch keyed by event name
//   - Role-aware fan-out with optional sender exclusion
//   - Disconnect cleanup and controller-gone notification
//
// The engine is transport-agnostic: it broadcasts through the Broadcaster
// interface and never touches sockets directly. Payloads are forwarded
// best-effort with no delivery guarantees; malformed client events are
// dropped at this boundary and never terminate the process.
package relay

// Package api provides the REST surface of the PadLink relay server.
//
// The api package implements:
//   - Session creation for the desktop display client
//   - Session introspection endpoints
//   - WebSocket upgrade routing
//   - Permissive CORS for cross-origin browser clients
//
// Session creation always succeeds: the response carries the new session
// ID, the host's LAN address (loopback when discovery fails), and the
// fixed port the desktop display client is served on. The relay itself
// listens elsewhere; the returned port only tells phones where to find the
// display app.
package api

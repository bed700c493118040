// Package session provides the in-memory session registry for the PadLink
// relay server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session status tracking and member lists
//   - Session cleanup and expiration
//
// Core Types:
//
// Registry is the session registry that owns all session records. Session
// represents one pairing context between a desktop display and its
// controllers, with status and member metadata.
//
// Session Identifiers:
//
// Sessions use 8-character hex IDs (the leading segment of a random UUID)
// so they stay short enough to type on a phone while keeping collisions
// between concurrently live sessions negligible.
//
// Concurrency:
//
// The registry is safe for concurrent use. Multiple goroutines can create,
// read, and update sessions simultaneously; internal locking ensures
// consistency. Accessors return copies, so callers never share mutable
// state with the registry.
package session

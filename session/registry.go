package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Status describes where a session is in its lifecycle.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
)

// Member is a participant that joined a session.
type Member struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

// Session represents a pairing context between a desktop display and its
// controllers.
type Session struct {
	ID          string    `json:"sessionId"`
	Status      Status    `json:"status"`
	Members     []Member  `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
	LastTouched time.Time `json:"lastTouched"`
}

// Registry handles session lifecycle. All state is in-memory; nothing is
// persisted across restarts.
type Registry struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Create inserts a new session in the waiting state and returns a copy of
// it. It always succeeds.
func (r *Registry) Create() Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := generateSessionID()
	for _, exists := r.sessions[id]; exists; _, exists = r.sessions[id] {
		id = generateSessionID()
	}

	now := time.Now()
	sess := &Session{
		ID:          id,
		Status:      StatusWaiting,
		Members:     []Member{},
		CreatedAt:   now,
		LastTouched: now,
	}
	r.sessions[id] = sess

	return *sess
}

// Get retrieves a session by ID.
func (r *Registry) Get(id string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, exists := r.sessions[id]
	if !exists {
		return Session{}, ErrSessionNotFound
	}
	return copySession(sess), nil
}

// List returns all live sessions.
func (r *Registry) List() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		result = append(result, copySession(sess))
	}
	return result
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// AddMember appends a participant to the session's member list. Joining an
// unknown session is allowed at the relay layer, so this is a no-op when
// the session does not exist.
func (r *Registry) AddMember(id string, member Member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, exists := r.sessions[id]
	if !exists {
		return
	}
	sess.Members = append(sess.Members, member)
	sess.LastTouched = time.Now()
}

// SetStatus records a status transition. No-op on unknown sessions.
func (r *Registry) SetStatus(id string, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, exists := r.sessions[id]
	if !exists {
		return
	}
	sess.Status = status
	sess.LastTouched = time.Now()
}

// Touch updates the last-touched time for a session. No-op on unknown
// sessions.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, exists := r.sessions[id]; exists {
		sess.LastTouched = time.Now()
	}
}

// CleanupExpired removes sessions that have not been touched within maxAge
// and returns how many were removed.
func (r *Registry) CleanupExpired(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, sess := range r.sessions {
		if sess.LastTouched.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}

	return removed
}

// generateSessionID returns a short random session token: the first 8 hex
// characters of a random UUID.
func generateSessionID() string {
	return uuid.NewString()[:8]
}

func copySession(sess *Session) Session {
	out := *sess
	out.Members = make([]Member, len(sess.Members))
	copy(out.Members, sess.Members)
	return out
}

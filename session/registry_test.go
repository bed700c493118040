package session

import (
	"regexp"
	"sync"
	"testing"
	"time"
)

func TestRegistryCreate(t *testing.T) {
	registry := NewRegistry()

	sess := registry.Create()

	if sess.ID == "" {
		t.Fatal("Create() returned session with empty ID")
	}

	if len(sess.ID) != 8 {
		t.Errorf("Expected 8-character session ID, got %q (%d chars)", sess.ID, len(sess.ID))
	}

	if !regexp.MustCompile(`^[0-9a-f]{8}$`).MatchString(sess.ID) {
		t.Errorf("Expected hex session ID, got %q", sess.ID)
	}

	if sess.Status != StatusWaiting {
		t.Errorf("Expected status %q, got %q", StatusWaiting, sess.Status)
	}

	if len(sess.Members) != 0 {
		t.Errorf("Expected empty member list, got %d members", len(sess.Members))
	}

	if sess.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestRegistryCreateUniqueIDs(t *testing.T) {
	registry := NewRegistry()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		sess := registry.Create()
		if seen[sess.ID] {
			t.Fatalf("Duplicate session ID generated: %s", sess.ID)
		}
		seen[sess.ID] = true
	}

	if registry.Count() != 100 {
		t.Errorf("Expected 100 sessions, got %d", registry.Count())
	}
}

func TestRegistryGet(t *testing.T) {
	registry := NewRegistry()
	created := registry.Create()

	sess, err := registry.Get(created.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	if sess.ID != created.ID {
		t.Errorf("Expected session %s, got %s", created.ID, sess.ID)
	}
}

func TestRegistryGetNotFound(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("missing1")
	if err != ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestRegistryAddMember(t *testing.T) {
	registry := NewRegistry()
	created := registry.Create()

	registry.AddMember(created.ID, Member{Role: "desktop"})
	registry.AddMember(created.ID, Member{Role: "controller", Name: "Ana"})

	sess, err := registry.Get(created.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	if len(sess.Members) != 2 {
		t.Fatalf("Expected 2 members, got %d", len(sess.Members))
	}

	if sess.Members[0].Role != "desktop" {
		t.Errorf("Expected first member role 'desktop', got %q", sess.Members[0].Role)
	}

	if sess.Members[1].Name != "Ana" {
		t.Errorf("Expected second member name 'Ana', got %q", sess.Members[1].Name)
	}
}

func TestRegistryAddMemberUnknownSession(t *testing.T) {
	registry := NewRegistry()

	// Must not panic or create a session as a side effect.
	registry.AddMember("missing1", Member{Role: "controller", Name: "Bob"})

	if registry.Count() != 0 {
		t.Errorf("Expected 0 sessions, got %d", registry.Count())
	}
}

func TestRegistrySetStatus(t *testing.T) {
	registry := NewRegistry()
	created := registry.Create()

	registry.SetStatus(created.ID, StatusActive)

	sess, err := registry.Get(created.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	if sess.Status != StatusActive {
		t.Errorf("Expected status %q, got %q", StatusActive, sess.Status)
	}

	// Unknown sessions are silently ignored.
	registry.SetStatus("missing1", StatusEnded)
}

func TestRegistryCopiesAreIsolated(t *testing.T) {
	registry := NewRegistry()
	created := registry.Create()

	sess, _ := registry.Get(created.ID)
	sess.Members = append(sess.Members, Member{Role: "controller", Name: "rogue"})
	sess.Status = StatusEnded

	stored, _ := registry.Get(created.ID)
	if len(stored.Members) != 0 {
		t.Error("Mutating a returned session should not affect the registry")
	}
	if stored.Status != StatusWaiting {
		t.Errorf("Expected status %q, got %q", StatusWaiting, stored.Status)
	}
}

func TestRegistryCleanupExpired(t *testing.T) {
	registry := NewRegistry()

	stale := registry.Create()
	fresh := registry.Create()

	// Backdate the stale session directly.
	registry.mu.Lock()
	registry.sessions[stale.ID].LastTouched = time.Now().Add(-2 * time.Hour)
	registry.mu.Unlock()

	removed := registry.CleanupExpired(1 * time.Hour)

	if removed != 1 {
		t.Errorf("Expected 1 session removed, got %d", removed)
	}

	if _, err := registry.Get(stale.ID); err != ErrSessionNotFound {
		t.Error("Stale session should have been removed")
	}

	if _, err := registry.Get(fresh.ID); err != nil {
		t.Errorf("Fresh session should survive cleanup: %v", err)
	}
}

func TestRegistryTouchPreventsCleanup(t *testing.T) {
	registry := NewRegistry()
	created := registry.Create()

	registry.mu.Lock()
	registry.sessions[created.ID].LastTouched = time.Now().Add(-2 * time.Hour)
	registry.mu.Unlock()

	registry.Touch(created.ID)

	if removed := registry.CleanupExpired(1 * time.Hour); removed != 0 {
		t.Errorf("Expected 0 sessions removed after touch, got %d", removed)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				sess := registry.Create()
				registry.AddMember(sess.ID, Member{Role: "controller"})
				registry.Touch(sess.ID)
				if _, err := registry.Get(sess.ID); err != nil {
					t.Errorf("Get() failed for freshly created session: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if registry.Count() != 200 {
		t.Errorf("Expected 200 sessions, got %d", registry.Count())
	}
}

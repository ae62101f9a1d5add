package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/fsru-tools/fleet-timeline/internal/timeline"
)

// liveSession pairs a timeline session with the per-session state owned by
// the shell: the currently viewed index and the playback flag. Renders
// against one session are serialized by its mutex; the baseline rule is not
// safe for concurrent advancement.
type liveSession struct {
	id      string
	session *timeline.Session

	mu      sync.Mutex
	current int
	playing bool
}

// Registry tracks live sessions by ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*liveSession
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*liveSession)}
}

// Create registers a new live session and returns it.
func (r *Registry) Create(session *timeline.Session) (*liveSession, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}

	ls := &liveSession{
		id:      hex.EncodeToString(buf),
		session: session,
		current: -1,
	}

	r.mu.Lock()
	r.sessions[ls.id] = ls
	r.mu.Unlock()

	return ls, nil
}

// Get returns the live session with the given ID, or nil.
func (r *Registry) Get(id string) *liveSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// Remove drops a session from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// SessionCount reports how many sessions are live.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

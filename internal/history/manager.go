package history

import (
	"sync"

	"github.com/google/uuid"
)

// Manager keys conversation histories by session ID. Each history is
// exclusively mutated by its owning session handler; the manager only
// guards the map itself.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*History
	maxSize  int
}

// NewManager creates a session manager whose histories hold maxSize turns.
func NewManager(maxSize int) *Manager {
	return &Manager{
		sessions: make(map[string]*History),
		maxSize:  maxSize,
	}
}

// Create allocates a new session and returns its ID.
func (m *Manager) Create() string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = New(m.maxSize)
	m.mu.Unlock()
	return id
}

// Get returns the history for a session, creating it on first use so a
// caller can supply its own session identifier (e.g. a connection ID).
func (m *Manager) Get(id string) *History {
	m.mu.RLock()
	h, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return h
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.sessions[id]; ok {
		return h
	}
	h = New(m.maxSize)
	m.sessions[id] = h
	return h
}

// Lookup returns the history only if the session exists.
func (m *Manager) Lookup(id string) (*History, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.sessions[id]
	return h, ok
}

// End removes a session and reports whether it existed.
func (m *Manager) End(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Active returns the number of live sessions.
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

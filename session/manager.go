package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/buildit-network/buildit/internal/logger"
	"github.com/buildit-network/buildit/internal/metrics"
)

// Manager hands out opaque handles for live sessions so a value-type record
// holding raw key material never crosses the FFI boundary. Hosts create a
// session, pass the handle around, and destroy it explicitly.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	log      logger.Logger
}

// NewManager creates an empty session registry.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		log:      logger.Default(),
	}
}

// Register stores a session and returns its handle.
func (m *Manager) Register(s *Session) string {
	handle := uuid.NewString()

	m.mu.Lock()
	m.sessions[handle] = s
	m.mu.Unlock()

	metrics.ActiveSessions.Inc()
	m.log.Debug("session registered", logger.String("handle", handle))
	return handle
}

// Get returns the session for a handle.
func (m *Manager) Get(handle string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[handle]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s not found", handle)
	}
	return s, nil
}

// Close wipes and removes the session for a handle. Closing an unknown
// handle is an error so double-destroys surface.
func (m *Manager) Close(handle string) error {
	m.mu.Lock()
	s, ok := m.sessions[handle]
	if ok {
		delete(m.sessions, handle)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s not found", handle)
	}

	metrics.ActiveSessions.Dec()
	m.log.Debug("session closed", logger.String("handle", handle))
	return s.Close()
}

// CloseAll wipes and removes every live session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for range sessions {
		metrics.ActiveSessions.Dec()
	}
	for _, s := range sessions {
		_ = s.Close()
	}
	m.log.Info("all sessions closed", logger.Int("count", len(sessions)))
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

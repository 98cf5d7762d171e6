// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/partyserver/network"
)

// Session binds one connected client to its server-side identity. Which
// room a session belongs to is the registry's business, not the session's.
type Session struct {
	ID        string
	Conn      network.Connection
	CreatedAt time.Time

	mutex      sync.RWMutex
	lastActive time.Time
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
	}
}

// SendEvent forwards an event to the client and refreshes the activity
// timestamp.
func (s *Session) SendEvent(event string, data interface{}) error {
	s.Touch()
	return s.Conn.SendEvent(event, data)
}

func (s *Session) GetID() string {
	return s.ID
}

// Touch marks the session as active now.
func (s *Session) Touch() {
	s.mutex.Lock()
	s.lastActive = time.Now()
	s.mutex.Unlock()
}

// LastActive returns the time of the last send or explicit touch.
func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager tracks every live session by ID.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// All returns a snapshot of every live session.
func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	return all
}

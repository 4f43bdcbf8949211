// Package session keeps the in-memory wizard sessions. A session lives until it is
// deleted or sits idle past the sweep TTL.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/dishshot-intake/internal/form"
	"github.com/ikkim/dishshot-intake/internal/metrics"
	"github.com/ikkim/dishshot-intake/internal/wizard"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one user's wizard: the form store plus the step it is on.
type Session struct {
	ID         string
	Flow       string
	AuthUserID string
	// AuthEmail is the login email, used when a new client leaves contact email blank.
	AuthEmail  string
	CreatedAt  time.Time

	Store     *form.Store
	Navigator *wizard.Navigator

	mu              sync.Mutex
	lastSeen        time.Time
	lastSubmittedAt *time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// MarkSubmitted records a successful submission.
func (s *Session) MarkSubmitted(at time.Time) {
	s.mu.Lock()
	s.lastSubmittedAt = &at
	s.mu.Unlock()
}

// LastSubmittedAt is nil until the session has submitted once.
func (s *Session) LastSubmittedAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSubmittedAt == nil {
		return nil
	}
	at := *s.lastSubmittedAt
	return &at
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create starts a session on the first step of flow with the default record.
func (m *Manager) Create(flow wizard.Flow, authUserID, authEmail string) *Session {
	now := m.now()
	s := &Session{
		ID:         uuid.New().String(),
		Flow:       flow.Name,
		AuthUserID: authUserID,
		AuthEmail:  authEmail,
		CreatedAt:  now,
		Store:      form.NewStore(),
		Navigator:  wizard.NewNavigator(flow),
		lastSeen:   now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	m.mu.Unlock()
	return s
}

// Get returns the session and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(m.now())
	return s, nil
}

func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	return true
}

// Sweep removes sessions idle for longer than ttl and returns how many it removed.
func (m *Manager) Sweep(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	metrics.SessionsEvicted.Add(float64(removed))
	return removed
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session binds an opaque token to a username for a limited time.
type Session struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

// SessionManager keeps active sessions in memory. Expired entries are
// rejected on lookup and swept by a background cleanup.
type SessionManager struct {
	mu           sync.Mutex
	sessions     map[string]Session
	ttl          time.Duration
	now          func() time.Time
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

func NewSessionManager(ttl time.Duration) *SessionManager {
	m := &SessionManager{
		sessions:    make(map[string]Session),
		ttl:         ttl,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go m.startCleanup()
	return m
}

// Issue creates a session for the given user.
func (m *SessionManager) Issue(username string) Session {
	s := Session{
		Token:     uuid.NewString(),
		Username:  username,
		ExpiresAt: m.now().Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()

	return s
}

// Resolve returns the username bound to the token, or false for unknown
// or expired tokens.
func (m *SessionManager) Resolve(token string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return "", false
	}
	if m.now().After(s.ExpiresAt) {
		delete(m.sessions, token)
		return "", false
	}
	return s.Username, true
}

// Revoke drops the session if it exists.
func (m *SessionManager) Revoke(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

func (m *SessionManager) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweepExpired()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *SessionManager) sweepExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for token, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, token)
		}
	}
}

// Stop shuts down the cleanup goroutine.
func (m *SessionManager) Stop() {
	m.shutdownOnce.Do(func() {
		close(m.stopCleanup)
	})
}

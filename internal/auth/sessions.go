package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// session is one logged-in browser session.
type session struct {
	username string
	expires  time.Time
}

// Sessions is an in-memory session table keyed by opaque token. Sessions do
// not survive a restart; users log in again.
type Sessions struct {
	mu      sync.Mutex
	ttl     time.Duration
	byToken map[string]session
}

// NewSessions creates a session table with the given lifetime.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{ttl: ttl, byToken: make(map[string]session)}
}

// Create starts a session for username and returns its token.
func (s *Sessions) Create(username string) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.byToken[token] = session{username: username, expires: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return token
}

// Lookup returns the username for a token. Expired sessions are removed on
// lookup.
func (s *Sessions) Lookup(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byToken[token]
	if !ok {
		return "", false
	}
	if time.Now().After(sess.expires) {
		delete(s.byToken, token)
		return "", false
	}
	return sess.username, true
}

// Revoke ends the session for a token. Revoking an unknown token is a no-op.
func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	delete(s.byToken, token)
	s.mu.Unlock()
}

// Len returns the number of live sessions, sweeping expired ones.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for token, sess := range s.byToken {
		if now.After(sess.expires) {
			delete(s.byToken, token)
		}
	}
	return len(s.byToken)
}

package session

import (
	"errors"
	"sync"
)

// ErrUnauthorized is returned when the backend rejects the bearer token.
// Receiving it means the session has been invalidated and the caller must
// log in again.
var ErrUnauthorized = errors.New("session expired or invalid token, please log in again")

// Session holds the credentials attached to every backend request: the
// admin's bearer token plus the static service API key. It replaces the
// browser-era global token in storage; one Session lives from login until
// logout or the first 401.
type Session struct {
	mu     sync.RWMutex
	token  string
	apiKey string
}

// New creates a session from a freshly issued token.
func New(token, apiKey string) *Session {
	return &Session{token: token, apiKey: apiKey}
}

// Token returns the bearer token, or ErrUnauthorized when the session has
// been invalidated.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrUnauthorized
	}
	return s.token, nil
}

// APIKey returns the static x-api-key value.
func (s *Session) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

// Valid reports whether the session still carries a token.
func (s *Session) Valid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// SetToken installs a freshly issued token, reviving an invalidated
// session after a new login.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Invalidate discards the token. Called on logout and on any 401.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

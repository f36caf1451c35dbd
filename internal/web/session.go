// Package web provides the HTTP server and web UI for NeuroSense.
package web

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/justestif/neurosense/internal/journal"
)

const (
	sessionCookieName = "session_id"
	sessionTTL        = 24 * time.Hour
)

// Session is one visitor's context: their name, the journal prompt they
// were shown and their history. Handlers receive it explicitly.
type Session struct {
	ID        string
	History   *journal.History
	CreatedAt time.Time

	mu            sync.RWMutex
	userName      string
	greeting      string
	currentPrompt string
}

// UserName returns the name the visitor entered, if any.
func (s *Session) UserName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userName
}

// Greeting returns the greeting chosen when the name was set.
func (s *Session) Greeting() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.greeting
}

// SetUser stores the visitor's name with its greeting.
func (s *Session) SetUser(name, greeting string) {
	s.mu.Lock()
	s.userName = name
	s.greeting = greeting
	s.mu.Unlock()
}

// CurrentPrompt returns the journal prompt the visitor is answering.
func (s *Session) CurrentPrompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPrompt
}

// SetPrompt replaces the current journal prompt.
func (s *Session) SetPrompt(prompt string) {
	s.mu.Lock()
	s.currentPrompt = prompt
	s.mu.Unlock()
}

func (s *Session) expired(now time.Time) bool {
	return now.Sub(s.CreatedAt) > sessionTTL
}

// SessionStore manages sessions in memory. Nothing survives a restart.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create generates a new empty session.
func (s *SessionStore) Create() (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:        id,
		History:   journal.NewHistory(),
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	return session, nil
}

// Get retrieves a live session by ID.
func (s *SessionStore) Get(id string) *Session {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	if session.expired(s.now()) {
		s.Delete(id)
		return nil
	}

	return session
}

// Delete removes a session by ID.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of stored sessions, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Prune drops expired sessions and returns how many were removed.
func (s *SessionStore) Prune() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// GetFromRequest extracts the session from the request cookie.
func (s *SessionStore) GetFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	return s.Get(cookie.Value)
}

// Ensure returns the request's session, creating one and setting its cookie
// when the visitor has none.
func (s *SessionStore) Ensure(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if session := s.GetFromRequest(r); session != nil {
		return session, nil
	}

	session, err := s.Create()
	if err != nil {
		return nil, err
	}
	setCookie(w, session)
	return session, nil
}

func setCookie(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

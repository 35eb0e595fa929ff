package memory

import (
	"sync"
	"time"

	"bondquest-rounds/internal/app"
)

// SessionStore keeps couple sessions in process memory.
type SessionStore struct {
	now      func() time.Time
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return NewSessionStoreWithClock(time.Now)
}

// NewSessionStoreWithClock stamps every session it creates with now.
func NewSessionStoreWithClock(now func() time.Time) *SessionStore {
	return &SessionStore{
		now:      now,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(coupleID string) *app.Session {
	if session, ok := s.Get(coupleID); ok {
		return session
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[coupleID]; ok {
		return session
	}
	session := app.NewSessionWithClock(coupleID, s.now)
	s.sessions[coupleID] = session
	return session
}

func (s *SessionStore) Get(coupleID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[coupleID]
	return session, ok
}

func (s *SessionStore) DeleteIfEmpty(coupleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[coupleID]; ok && session.IsEmpty() {
		delete(s.sessions, coupleID)
	}
}

// Len reports how many couples currently have a live session.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

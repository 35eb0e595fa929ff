package redis

import (
	"context"
	"sync"
	"time"

	"bondquest-rounds/internal/app"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Sessions and their broadcast fan-out stay in process; Redis only carries a
// liveness marker per couple so other instances can tell a couple is playing.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(coupleID string) *app.Session {
	s.mu.Lock()
	session, ok := s.sessions[coupleID]
	if !ok {
		session = app.NewSession(coupleID)
		s.sessions[coupleID] = session
	}
	s.mu.Unlock()

	// best-effort; refreshed on every join so active couples never expire
	if err := s.client.Set(context.Background(), s.key(coupleID), "1", s.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("couple_id", coupleID).Msg("session marker not written")
	}
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
	session, ok := s.sessions[coupleID]
	if !ok || !session.IsEmpty() {
		return
	}
	delete(s.sessions, coupleID)
	_ = s.client.Del(context.Background(), s.key(coupleID)).Err()
}

// Len reports how many couples this instance is hosting.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Live reports whether any instance has marked the couple as playing.
func (s *SessionStore) Live(ctx context.Context, coupleID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(coupleID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SessionStore) key(coupleID string) string {
	return "couple:session:" + coupleID
}

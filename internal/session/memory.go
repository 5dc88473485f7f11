package session

import (
	"context"
	"sync"
	"time"

	"github.com/bluehawana/totoyai/internal/conversation"
)

// MemoryStore is an in-process Store for tests and single-node development.
// It mirrors the Redis store's sliding-TTL semantics: expiry is checked on
// read, so an expired session behaves exactly like a missing one.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewMemoryStore creates an in-memory store. A non-positive ttl falls back
// to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[string]*Session),
	}
}

// SetClock overrides the time source. Test hook only.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MemoryStore) Create(_ context.Context, sessionID, deviceID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &Session{
		SessionID: sessionID,
		DeviceID:  deviceID,
		Messages:  []conversation.Message{},
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.sessions[sessionID] = sess
	return copySession(sess), nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.locked(sessionID)
	if err != nil {
		return nil, err
	}
	return copySession(sess), nil
}

func (s *MemoryStore) AppendTurn(_ context.Context, sessionID, userText, assistantText string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.locked(sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess.Messages = append(sess.Messages,
		conversation.Message{Role: conversation.RoleUser, Content: userText, Timestamp: now},
		conversation.Message{Role: conversation.RoleAssistant, Content: assistantText, Timestamp: now},
	)
	sess.ExpiresAt = now.Add(s.ttl)
	return copySession(sess), nil
}

func (s *MemoryStore) SetStory(_ context.Context, sessionID, story string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.locked(sessionID)
	if err != nil {
		return nil, err
	}

	sess.CurrentStory = story
	sess.ExpiresAt = s.now().Add(s.ttl)
	return copySession(sess), nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// locked returns the live session, enforcing expiry. Expired entries are
// evicted on the spot so the map does not grow without bound. Callers hold
// s.mu.
func (s *MemoryStore) locked(sessionID string) (*Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, sessionID)
		return nil, ErrNotFound
	}
	return sess, nil
}

func copySession(sess *Session) *Session {
	out := *sess
	out.Messages = append([]conversation.Message(nil), sess.Messages...)
	return &out
}

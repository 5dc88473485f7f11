package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bluehawana/totoyai/internal/conversation"
)

// RedisStore implements Store on top of Redis, using SETEX semantics so the
// server enforces expiry without any sweeper on our side.
type RedisStore struct {
	url string
	ttl time.Duration

	mu     sync.Mutex
	client *redis.Client
}

// NewRedisStore creates a store for the given Redis URL
// (e.g. "redis://localhost:6379/0"). The connection is established lazily on
// first use. A non-positive ttl falls back to DefaultTTL.
func NewRedisStore(url string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{url: url, ttl: ttl}
}

// connect establishes the Redis connection. Safe and cheap to call repeatedly.
func (s *RedisStore) connect() (*redis.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	opts, err := redis.ParseURL(s.url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	s.client = redis.NewClient(opts)
	slog.Info("connected to session store", "addr", opts.Addr)
	return s.client, nil
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

// Create starts a fresh session and writes it with the full TTL.
func (s *RedisStore) Create(ctx context.Context, sessionID, deviceID string) (*Session, error) {
	client, err := s.connect()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess := &Session{
		SessionID: sessionID,
		DeviceID:  deviceID,
		Messages:  []conversation.Message{},
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.write(ctx, client, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get fetches a session, mapping both absent and expired keys to ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	client, err := s.connect()
	if err != nil {
		return nil, err
	}

	data, err := client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &sess, nil
}

// AppendTurn records the two messages of one turn and refreshes the TTL.
func (s *RedisStore) AppendTurn(ctx context.Context, sessionID, userText, assistantText string) (*Session, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess.Messages = append(sess.Messages,
		conversation.Message{Role: conversation.RoleUser, Content: userText, Timestamp: now},
		conversation.Message{Role: conversation.RoleAssistant, Content: assistantText, Timestamp: now},
	)

	client, err := s.connect()
	if err != nil {
		return nil, err
	}
	sess.ExpiresAt = now.Add(s.ttl)
	if err := s.write(ctx, client, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SetStory stores the current story text and refreshes the TTL.
func (s *RedisStore) SetStory(ctx context.Context, sessionID, story string) (*Session, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.CurrentStory = story

	client, err := s.connect()
	if err != nil {
		return nil, err
	}
	sess.ExpiresAt = time.Now().UTC().Add(s.ttl)
	if err := s.write(ctx, client, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Delete removes a session. Missing keys are not an error.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	client, err := s.connect()
	if err != nil {
		return err
	}
	if err := client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// write serializes the full session state under the full TTL window. The
// whole blob is replaced each time — there is no field-level mutation across
// the store boundary.
func (s *RedisStore) write(ctx context.Context, client *redis.Client, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := client.Set(ctx, sessionKey(sess.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

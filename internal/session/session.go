// Package session holds the ephemeral conversational state for one device.
//
// A session lives in an expiring key-value store with a sliding TTL: every
// write pushes expiry out to the full window again, so an active conversation
// never dies mid-exchange while an idle one always does. A missing record and
// an expired record are indistinguishable — both are ErrNotFound, and callers
// treat that as a routine branch, not a failure.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/bluehawana/totoyai/internal/conversation"
)

// DefaultTTL is the session lifetime window.
const DefaultTTL = 30 * time.Minute

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Session is one ongoing conversation with one device.
type Session struct {
	SessionID string                 `json:"session_id"`
	DeviceID  string                 `json:"device_id"`
	Messages  []conversation.Message `json:"messages"`

	// CurrentStory carries the in-progress story text for multi-turn
	// continuation ("what happens next?").
	CurrentStory string `json:"current_story,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Window returns the last n messages in conversational order.
func (s *Session) Window(n int) []conversation.Message {
	if len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// Store is the contract for session persistence.
//
// There is no compare-and-swap: concurrent turns on one session id are
// last-writer-wins, an accepted limitation under the single-device,
// single-active-conversation assumption.
type Store interface {
	// Create starts a fresh session with an empty message list.
	Create(ctx context.Context, sessionID, deviceID string) (*Session, error)

	// Get fetches a session, or ErrNotFound if missing or expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// AppendTurn records one user utterance and the assistant reply,
	// refreshing the TTL. Returns ErrNotFound for missing sessions.
	AppendTurn(ctx context.Context, sessionID, userText, assistantText string) (*Session, error)

	// SetStory stores the current story text for continuation, refreshing
	// the TTL. Returns ErrNotFound for missing sessions.
	SetStory(ctx context.Context, sessionID, story string) (*Session, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Close releases the backing connection.
	Close() error
}

package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// audioTTL is how long a synthesized reply stays fetchable. Devices pull
// the audio immediately after the conversation response, so a short window
// is plenty.
const audioTTL = 5 * time.Minute

type audioEntry struct {
	data        []byte
	contentType string
	expiresAt   time.Time
}

// audioCache holds synthesized replies between the conversation response
// (which carries the audio_url) and the device's follow-up fetch.
type audioCache struct {
	mu      sync.RWMutex
	entries map[string]audioEntry
}

func newAudioCache() *audioCache {
	return &audioCache{entries: make(map[string]audioEntry)}
}

// put stores audio under a fresh id, evicting anything expired.
func (c *audioCache) put(data []byte, contentType string) string {
	id := uuid.NewString()
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.entries[id] = audioEntry{
		data:        data,
		contentType: contentType,
		expiresAt:   now.Add(audioTTL),
	}
	return id
}

// get returns cached audio, treating expired entries as absent.
func (c *audioCache) get(id string) ([]byte, string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[id]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, "", false
	}
	return entry.data, entry.contentType, true
}

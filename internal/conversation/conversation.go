// Package conversation defines the core data types flowing through the
// totoyai turn pipeline.
package conversation

import "time"

// Intent is the closed classification of what the child asked about.
type Intent string

const (
	IntentWeather Intent = "weather"
	IntentStory   Intent = "story"
	IntentSong    Intent = "song"
	IntentMath    Intent = "math"
	IntentGeneral Intent = "general"
)

// Role identifies who produced a message within a session.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn half: what the child said or what the toy answered.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnRequest is one inbound utterance from a device. Exactly one of Audio
// or Text is expected; when both are set, Audio wins and Text is ignored.
type TurnRequest struct {
	// DeviceID identifies the toy the utterance came from.
	DeviceID string `json:"device_id"`

	// SessionID is the caller-supplied conversation key.
	SessionID string `json:"session_id"`

	// Audio is the raw utterance audio. Nil for pre-transcribed input.
	Audio []byte `json:"audio,omitempty"`

	// SampleRate is the audio sample rate in Hz (default 16000).
	SampleRate int `json:"sample_rate,omitempty"`

	// Text is an optional pre-transcribed utterance (bypasses STT).
	Text string `json:"text,omitempty"`

	// Timestamp is when the device captured the utterance.
	Timestamp time.Time `json:"timestamp"`
}

// HasAudio reports whether the request carries an audio payload.
func (r *TurnRequest) HasAudio() bool {
	return len(r.Audio) > 0
}

// TurnResult is the outcome of running one utterance through the pipeline.
type TurnResult struct {
	// SessionID echoes the conversation key of the request.
	SessionID string `json:"session_id"`

	// Transcript is the recognized (or passed-through) utterance text.
	Transcript string `json:"transcript"`

	// ResponseText is the child-safe reply in the detected language.
	ResponseText string `json:"response_text"`

	// Intent is the local classification of the utterance, never of the reply.
	Intent Intent `json:"intent"`

	// Language is the ISO-639-1 code the turn was conducted in ("en", "sv").
	Language string `json:"language"`

	// Audio is the synthesized reply. Nil when synthesis was unavailable;
	// the text reply stands on its own in that case.
	Audio []byte `json:"-"`

	// AudioContentType is the MIME type of Audio (e.g. "audio/mpeg").
	AudioContentType string `json:"-"`

	// SpokenFallback is set when synthesis failed: a short per-locale
	// sentence the device may speak with its on-board voice instead.
	SpokenFallback string `json:"spoken_fallback,omitempty"`

	// Timestamp is when the reply was produced.
	Timestamp time.Time `json:"timestamp"`
}

// Package tts defines the interface for text-to-speech synthesis.
//
// The toy speaks replies in the same language the child used, so the voice
// is selected per locale. Synthesis is streaming-first: the device starts
// playback before the full reply is rendered. A buffering helper covers
// callers that need the whole blob (offline story pre-rendering).
package tts

import (
	"context"
	"fmt"
	"io"
)

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Language is the ISO-639-1 code ("en", "sv") used to select the voice.
	Language string

	// Voice overrides automatic language-based voice selection.
	Voice string
}

// Stream is an in-progress synthesis: audio bytes become readable as the
// backend produces them. Callers must Close the Audio reader.
type Stream struct {
	// Audio yields the synthesized audio.
	Audio io.ReadCloser

	// ContentType is the MIME type of the audio (e.g. "audio/mpeg").
	ContentType string
}

// SynthesisError wraps any backend failure behind one domain type.
type SynthesisError struct {
	Backend string
	Err     error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%s synthesis failed: %v", e.Backend, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Name returns the backend identifier (e.g. "edge", "piper").
	Name() string

	// Synthesize starts rendering the text and returns a stream of audio
	// chunks.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*Stream, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// Buffer runs a full synthesis and concatenates the stream into one blob.
func Buffer(ctx context.Context, s Synthesizer, text string, opts SynthesizeOpts) ([]byte, string, error) {
	stream, err := s.Synthesize(ctx, text, opts)
	if err != nil {
		return nil, "", err
	}
	defer stream.Audio.Close()

	audio, err := io.ReadAll(stream.Audio)
	if err != nil {
		return nil, "", &SynthesisError{Backend: s.Name(), Err: err}
	}
	return audio, stream.ContentType, nil
}

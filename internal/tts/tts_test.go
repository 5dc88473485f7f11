package tts_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluehawana/totoyai/internal/tts"
)

type stubSynthesizer struct {
	stream *tts.Stream
	err    error
}

func (s *stubSynthesizer) Name() string { return "stub" }

func (s *stubSynthesizer) Synthesize(context.Context, string, tts.SynthesizeOpts) (*tts.Stream, error) {
	return s.stream, s.err
}

func (s *stubSynthesizer) Close() error { return nil }

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("socket reset") }
func (failingReader) Close() error             { return nil }

func TestBuffer(t *testing.T) {
	s := &stubSynthesizer{stream: &tts.Stream{
		Audio:       io.NopCloser(bytes.NewReader([]byte("chunk1chunk2"))),
		ContentType: "audio/mpeg",
	}}

	audio, contentType, err := tts.Buffer(context.Background(), s, "hello", tts.SynthesizeOpts{Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, []byte("chunk1chunk2"), audio)
	assert.Equal(t, "audio/mpeg", contentType)
}

func TestBufferSynthesizeError(t *testing.T) {
	want := &tts.SynthesisError{Backend: "stub", Err: errors.New("down")}
	s := &stubSynthesizer{err: want}

	_, _, err := tts.Buffer(context.Background(), s, "hello", tts.SynthesizeOpts{})
	assert.ErrorIs(t, err, want)
}

func TestBufferStreamError(t *testing.T) {
	s := &stubSynthesizer{stream: &tts.Stream{Audio: failingReader{}, ContentType: "audio/mpeg"}}

	_, _, err := tts.Buffer(context.Background(), s, "hello", tts.SynthesizeOpts{})
	require.Error(t, err)
	var serr *tts.SynthesisError
	assert.ErrorAs(t, err, &serr)
}

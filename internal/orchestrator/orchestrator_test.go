package orchestrator_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluehawana/totoyai/internal/conversation"
	"github.com/bluehawana/totoyai/internal/language"
	"github.com/bluehawana/totoyai/internal/orchestrator"
	"github.com/bluehawana/totoyai/internal/provider"
	"github.com/bluehawana/totoyai/internal/safety"
	"github.com/bluehawana/totoyai/internal/session"
	"github.com/bluehawana/totoyai/internal/stt"
	"github.com/bluehawana/totoyai/internal/tts"
)

type fakeTranscriber struct {
	text string
	lang string
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _ int) (*stt.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &stt.Result{Text: f.text, Confidence: 1.0, Language: f.lang}, nil
}

type fakeGenerator struct {
	reply      string
	err        error
	gotHistory []conversation.Message
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGenerator) GenerateConversation(ctx context.Context, utterance, lang string, history []conversation.Message) (string, conversation.Intent, error) {
	f.gotHistory = history
	return provider.Converse(ctx, f, utterance, lang, history)
}

func (f *fakeGenerator) Close() error { return nil }

type fakeSynthesizer struct {
	err   error
	calls int
}

func (f *fakeSynthesizer) Name() string { return "fake-tts" }

func (f *fakeSynthesizer) Synthesize(_ context.Context, text string, _ tts.SynthesizeOpts) (*tts.Stream, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &tts.Stream{
		Audio:       io.NopCloser(bytes.NewReader([]byte("audio:" + text))),
		ContentType: "audio/mpeg",
	}, nil
}

func (f *fakeSynthesizer) Close() error { return nil }

// brokenStore fails every operation, simulating an unreachable backend.
type brokenStore struct{}

func (brokenStore) Create(context.Context, string, string) (*session.Session, error) {
	return nil, errors.New("connection refused")
}
func (brokenStore) Get(context.Context, string) (*session.Session, error) {
	return nil, errors.New("connection refused")
}
func (brokenStore) AppendTurn(context.Context, string, string, string) (*session.Session, error) {
	return nil, errors.New("connection refused")
}
func (brokenStore) SetStory(context.Context, string, string) (*session.Session, error) {
	return nil, errors.New("connection refused")
}
func (brokenStore) Delete(context.Context, string) error { return errors.New("connection refused") }
func (brokenStore) Close() error                         { return nil }

func textRequest(text string) *conversation.TurnRequest {
	return &conversation.TurnRequest{DeviceID: "toy-42", SessionID: "sess-1", Text: text}
}

func TestHandleTextTurn(t *testing.T) {
	store := session.NewMemoryStore(0)
	o := orchestrator.New(nil, &fakeGenerator{reply: "Hi friend!"}, store, safety.New(), &fakeSynthesizer{})

	result, err := o.Handle(context.Background(), textRequest("hello, thanks!"))
	require.NoError(t, err)

	assert.Equal(t, "hello, thanks!", result.Transcript)
	assert.Equal(t, "Hi friend!", result.ResponseText)
	assert.Equal(t, conversation.IntentGeneral, result.Intent)
	assert.Equal(t, language.English, result.Language)
	assert.Equal(t, []byte("audio:Hi friend!"), result.Audio)
	assert.Equal(t, "audio/mpeg", result.AudioContentType)
	assert.Empty(t, result.SpokenFallback)

	// The turn was recorded under the session.
	sess, err := store.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "hello, thanks!", sess.Messages[0].Content)
	assert.Equal(t, "Hi friend!", sess.Messages[1].Content)
}

func TestHandleAudioTurn(t *testing.T) {
	transcriber := &fakeTranscriber{text: "berätta en saga", lang: "sv"}
	store := session.NewMemoryStore(0)
	o := orchestrator.New(transcriber, &fakeGenerator{reply: "Det var en gång..."}, store, safety.New(), nil)

	result, err := o.Handle(context.Background(), &conversation.TurnRequest{
		DeviceID:   "toy-42",
		SessionID:  "sess-1",
		Audio:      []byte{1, 2, 3},
		SampleRate: 16000,
	})
	require.NoError(t, err)

	assert.Equal(t, "berätta en saga", result.Transcript)
	assert.Equal(t, conversation.IntentStory, result.Intent)
	// The recognizer's language report wins over the keyword heuristic.
	assert.Equal(t, language.Swedish, result.Language)

	// Story turns keep the reply for continuation.
	sess, err := store.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Det var en gång...", sess.CurrentStory)
}

func TestHandleTranscriptionFailure(t *testing.T) {
	transcriber := &fakeTranscriber{err: &stt.TranscriptionError{Err: errors.New("upstream 500")}}
	o := orchestrator.New(transcriber, &fakeGenerator{reply: "x"}, session.NewMemoryStore(0), safety.New(), nil)

	_, err := o.Handle(context.Background(), &conversation.TurnRequest{
		DeviceID:  "toy-42",
		SessionID: "sess-1",
		Audio:     []byte{1},
	})
	require.Error(t, err)
	var terr *stt.TranscriptionError
	assert.ErrorAs(t, err, &terr)
}

func TestHandleEmptyRequest(t *testing.T) {
	o := orchestrator.New(nil, &fakeGenerator{reply: "x"}, session.NewMemoryStore(0), safety.New(), nil)

	_, err := o.Handle(context.Background(), textRequest(""))
	require.Error(t, err)
	var terr *stt.TranscriptionError
	assert.ErrorAs(t, err, &terr)
}

func TestHandleGenerationFailureDegradesToFallback(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("every backend down")}
	o := orchestrator.New(nil, gen, session.NewMemoryStore(0), safety.New(), nil)

	result, err := o.Handle(context.Background(), textRequest("hej, tack!"))
	require.NoError(t, err)

	assert.Equal(t, language.GenerationFallback(language.Swedish), result.ResponseText)
	assert.Equal(t, conversation.IntentGeneral, result.Intent)
}

func TestHandleUnsafeReplyReplaced(t *testing.T) {
	gen := &fakeGenerator{reply: "The dragon wanted to kill everyone"}
	store := session.NewMemoryStore(0)
	o := orchestrator.New(nil, gen, store, safety.New(), nil)

	result, err := o.Handle(context.Background(), textRequest("tell me about dragons"))
	require.NoError(t, err)
	assert.Equal(t, language.SafetyFallback(language.English), result.ResponseText)

	// The substitute, not the unsafe text, is what gets recorded.
	sess, err := store.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, language.SafetyFallback(language.English), sess.Messages[1].Content)
}

func TestHandleStoreUnavailableStaysStateless(t *testing.T) {
	o := orchestrator.New(nil, &fakeGenerator{reply: "Hi!"}, brokenStore{}, safety.New(), nil)

	result, err := o.Handle(context.Background(), textRequest("hello"))
	require.NoError(t, err)
	assert.Equal(t, "Hi!", result.ResponseText)
	assert.NotEmpty(t, result.Language)
	assert.NotEmpty(t, result.Intent)
}

func TestHandleSynthesisFailureReturnsTextOnly(t *testing.T) {
	synth := &fakeSynthesizer{err: &tts.SynthesisError{Backend: "fake-tts", Err: errors.New("socket closed")}}
	o := orchestrator.New(nil, &fakeGenerator{reply: "Hi!"}, session.NewMemoryStore(0), safety.New(), synth)

	result, err := o.Handle(context.Background(), textRequest("hello"))
	require.NoError(t, err)

	assert.Equal(t, "Hi!", result.ResponseText)
	assert.Empty(t, result.Audio)
	assert.Equal(t, language.SynthesisFallback(language.English), result.SpokenFallback)
}

func TestHandleUsesSessionHistory(t *testing.T) {
	store := session.NewMemoryStore(0)
	_, err := store.Create(context.Background(), "sess-1", "toy-42")
	require.NoError(t, err)
	_, err = store.AppendTurn(context.Background(), "sess-1", "my name is Astrid", "Nice to meet you, Astrid!")
	require.NoError(t, err)

	o := orchestrator.New(nil, &fakeGenerator{reply: "Your name is Astrid!"}, store, safety.New(), nil)

	result, err := o.Handle(context.Background(), textRequest("what is my name?"))
	require.NoError(t, err)
	assert.Equal(t, "Your name is Astrid!", result.ResponseText)

	sess, err := store.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 4)
}

func TestHandleTrimsHistoryToContextWindow(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore(0)
	_, err := store.Create(ctx, "sess-1", "toy-42")
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err = store.AppendTurn(ctx, "sess-1", "question", "answer")
		require.NoError(t, err)
	}

	gen := &fakeGenerator{reply: "Okay!"}
	o := orchestrator.New(nil, gen, store, safety.New(), nil)

	_, err = o.Handle(ctx, textRequest("one more question"))
	require.NoError(t, err)

	// Only the trailing window of the 8 stored messages reaches the
	// generator.
	require.Len(t, gen.gotHistory, provider.ContextWindow)
	assert.Equal(t, conversation.RoleAssistant, gen.gotHistory[len(gen.gotHistory)-1].Role)
}

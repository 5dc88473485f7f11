package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluehawana/totoyai/internal/api"
	"github.com/bluehawana/totoyai/internal/auth"
	"github.com/bluehawana/totoyai/internal/config"
	"github.com/bluehawana/totoyai/internal/conversation"
	"github.com/bluehawana/totoyai/internal/session"
	"github.com/bluehawana/totoyai/internal/stt"
	"github.com/bluehawana/totoyai/internal/weather"
)

// fakeTurns scripts the pipeline behind the conversation endpoint.
type fakeTurns struct {
	result  *conversation.TurnResult
	err     error
	lastReq *conversation.TurnRequest
}

func (f *fakeTurns) Handle(_ context.Context, req *conversation.TurnRequest) (*conversation.TurnResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	res := *f.result
	res.SessionID = req.SessionID
	return &res, nil
}

type fakeWeather struct {
	report *weather.Report
	err    error
}

func (f *fakeWeather) Current(_ context.Context, _ string) (*weather.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type fixture struct {
	handler http.Handler
	auth    *auth.Authenticator
	turns   *fakeTurns
	store   *session.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	authenticator := auth.New(config.AuthConfig{Secret: "test-secret", AccessTTL: time.Hour})
	turns := &fakeTurns{result: &conversation.TurnResult{
		Transcript:   "hello",
		ResponseText: "Hi friend!",
		Intent:       conversation.IntentGeneral,
		Language:     "en",
		Timestamp:    time.Now().UTC(),
	}}
	store := session.NewMemoryStore(0)
	srv := api.New(0, turns, authenticator, store, &fakeWeather{report: &weather.Report{
		Location: "Stockholm", Condition: "sunny",
	}})
	return &fixture{handler: srv.Handler(), auth: authenticator, turns: turns, store: store}
}

func (f *fixture) bearer(t *testing.T) string {
	t.Helper()
	tokens, err := f.auth.Issue("toy-42")
	require.NoError(t, err)
	return "Bearer " + tokens.AccessToken
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestAuthDevice(t *testing.T) {
	f := newFixture(t)

	t.Run("issues token pair", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/auth/device", "",
			map[string]string{"device_id": "toy-42", "device_secret": "hunter2"})
		require.Equal(t, http.StatusOK, rec.Code)

		var tokens auth.Tokens
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokens))
		assert.NotEmpty(t, tokens.AccessToken)
		assert.Equal(t, "bearer", tokens.TokenType)

		claims, err := f.auth.Verify(tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "toy-42", claims.DeviceID)
	})

	t.Run("rejects missing credentials", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/auth/device", "",
			map[string]string{"device_id": "toy-42"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_REQUEST")
	})
}

func TestConversationRequiresToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/conversation", "",
		map[string]string{"session_id": "sess-1", "text": "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/conversation", "Bearer garbage",
		map[string]string{"session_id": "sess-1", "text": "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestConversationRejectsRefreshToken(t *testing.T) {
	f := newFixture(t)
	tokens, err := f.auth.Issue("toy-42")
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/v1/conversation", "Bearer "+tokens.RefreshToken,
		map[string]string{"session_id": "sess-1", "text": "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestConversationTurn(t *testing.T) {
	f := newFixture(t)
	token := f.bearer(t)

	rec := f.do(t, http.MethodPost, "/api/v1/conversation", token,
		map[string]any{"session_id": "sess-1", "text": "hello", "device_id": "spoofed-device"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SessionID    string  `json:"session_id"`
		ResponseText string  `json:"response_text"`
		Intent       string  `json:"intent"`
		Language     string  `json:"language"`
		AudioURL     *string `json:"audio_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, "Hi friend!", resp.ResponseText)
	assert.Equal(t, "general", resp.Intent)
	assert.Equal(t, "en", resp.Language)
	assert.Nil(t, resp.AudioURL)

	// The token's device id wins over whatever the body claims.
	assert.Equal(t, "toy-42", f.turns.lastReq.DeviceID)
}

func TestConversationValidation(t *testing.T) {
	f := newFixture(t)
	token := f.bearer(t)

	t.Run("missing session id", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/conversation", token,
			map[string]string{"text": "hi"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad base64 audio", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/conversation", token,
			map[string]string{"session_id": "sess-1", "audio_data": "!!not-base64!!"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestConversationTranscriptionFailure(t *testing.T) {
	f := newFixture(t)
	f.turns.err = &stt.TranscriptionError{Err: errors.New("whisper 500")}

	rec := f.do(t, http.MethodPost, "/api/v1/conversation", f.bearer(t),
		map[string]string{"session_id": "sess-1", "text": "hi"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "TRANSCRIPTION_FAILED")
}

func TestAudioDelivery(t *testing.T) {
	f := newFixture(t)
	f.turns.result.Audio = []byte("mp3-bytes")
	f.turns.result.AudioContentType = "audio/mpeg"
	token := f.bearer(t)

	rec := f.do(t, http.MethodPost, "/api/v1/conversation", token,
		map[string]string{"session_id": "sess-1", "text": "hello"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AudioURL *string `json:"audio_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.AudioURL)

	fetch := f.do(t, http.MethodGet, *resp.AudioURL, token, nil)
	assert.Equal(t, http.StatusOK, fetch.Code)
	assert.Equal(t, "audio/mpeg", fetch.Header().Get("Content-Type"))
	assert.Equal(t, "mp3-bytes", fetch.Body.String())

	missing := f.do(t, http.MethodGet, "/api/v1/audio/unknown-id", token, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestWeather(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/weather?location=stockholm", f.bearer(t), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Stockholm")
}

func TestWeatherUpstreamFailure(t *testing.T) {
	authenticator := auth.New(config.AuthConfig{Secret: "test-secret", AccessTTL: time.Hour})
	srv := api.New(0, &fakeTurns{result: &conversation.TurnResult{}}, authenticator,
		session.NewMemoryStore(0), &fakeWeather{err: errors.New("open-meteo down")})
	f := &fixture{handler: srv.Handler(), auth: authenticator}

	rec := f.do(t, http.MethodGet, "/api/v1/weather", f.bearer(t), nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "WEATHER_UNAVAILABLE")
}

func TestStories(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/stories", f.bearer(t), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var series []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	assert.Len(t, series, 3)
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.Create(ctx, "sess-1", "toy-42")
	require.NoError(t, err)

	rec := f.do(t, http.MethodDelete, "/api/v1/sessions/sess-1", f.bearer(t), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = f.store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

package local_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluehawana/totoyai/internal/config"
	"github.com/bluehawana/totoyai/internal/conversation"
	"github.com/bluehawana/totoyai/internal/provider"
	"github.com/bluehawana/totoyai/internal/provider/local"
)

func TestGenerate(t *testing.T) {
	var gotBody struct {
		Model    string `json:"model"`
		Stream   bool   `json:"stream"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"content":"Hello little friend!"}}`))
	}))
	t.Cleanup(srv.Close)

	p := local.New(config.LocalConfig{Endpoint: srv.URL, Model: "llama3.1"})

	text, err := p.Generate(context.Background(), "hi there", "be friendly")
	require.NoError(t, err)
	assert.Equal(t, "Hello little friend!", text)

	assert.Equal(t, "llama3.1", gotBody.Model)
	assert.False(t, gotBody.Stream)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, "be friendly", gotBody.Messages[0].Content)
	assert.Equal(t, "user", gotBody.Messages[1].Role)
}

func TestGenerateErrors(t *testing.T) {
	t.Run("upstream failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		t.Cleanup(srv.Close)

		p := local.New(config.LocalConfig{Endpoint: srv.URL})
		_, err := p.Generate(context.Background(), "hi", "sys")
		require.Error(t, err)
		var genErr *provider.GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Equal(t, "local", genErr.Backend)
	})

	t.Run("empty content", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"message":{"content":""}}`))
		}))
		t.Cleanup(srv.Close)

		p := local.New(config.LocalConfig{Endpoint: srv.URL})
		_, err := p.Generate(context.Background(), "hi", "sys")
		assert.Error(t, err)
	})
}

func TestGenerateConversationClassifiesLocally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"content":"Once upon a time..."}}`))
	}))
	t.Cleanup(srv.Close)

	p := local.New(config.LocalConfig{Endpoint: srv.URL})
	text, detected, err := p.GenerateConversation(context.Background(), "tell me a story", "en", nil)
	require.NoError(t, err)
	assert.Equal(t, "Once upon a time...", text)
	assert.Equal(t, conversation.IntentStory, detected)
}

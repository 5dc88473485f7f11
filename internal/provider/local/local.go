// Package local implements the generation Provider using a self-hosted
// Ollama server. Useful when the toy backend runs fully offline.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bluehawana/totoyai/internal/config"
	"github.com/bluehawana/totoyai/internal/conversation"
	"github.com/bluehawana/totoyai/internal/provider"
)

// Provider calls an Ollama /api/chat endpoint.
type Provider struct {
	endpoint string
	model    string
	client   *http.Client
}

// New creates a local provider from config. ChatTimeout bounds every call;
// long-form story generation is expected to use a caller context with the
// larger story timeout.
func New(cfg config.LocalConfig) *Provider {
	model := cfg.Model
	if model == "" {
		model = "llama3.1"
	}
	timeout := cfg.ChatTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Provider{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		model:    model,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name returns the backend identifier.
func (p *Provider) Name() string { return "local" }

// Generate produces text for a prompt under a system instruction.
func (p *Provider) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	text, err := p.generate(ctx, prompt, systemInstruction)
	if err != nil {
		return "", &provider.GenerationError{Backend: p.Name(), Err: err}
	}
	return text, nil
}

// GenerateConversation produces a child-appropriate reply with local intent
// classification.
func (p *Provider) GenerateConversation(ctx context.Context, utterance, lang string, history []conversation.Message) (string, conversation.Intent, error) {
	return provider.Converse(ctx, p, utterance, lang, history)
}

// Close is a no-op for the local provider.
func (p *Provider) Close() error { return nil }

// --- Wire types ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

func (p *Provider) generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	reqBody := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		Stream: false,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/api/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("ollama failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if result.Message.Content == "" {
		return "", fmt.Errorf("empty response from ollama")
	}

	slog.Debug("local generation complete", "model", p.model, "text_length", len(result.Message.Content))
	return result.Message.Content, nil
}

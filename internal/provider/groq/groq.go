// Package groq implements the generation Provider using Groq's
// OpenAI-compatible chat completions API.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bluehawana/totoyai/internal/config"
	"github.com/bluehawana/totoyai/internal/conversation"
	"github.com/bluehawana/totoyai/internal/provider"
)

const chatURL = "https://api.groq.com/openai/v1/chat/completions"

// Provider calls the Groq chat completions endpoint.
type Provider struct {
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

// New creates a Groq provider from config.
func New(cfg config.GroqConfig) *Provider {
	model := cfg.Model
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	temp := cfg.Temperature
	if temp == 0 {
		temp = 0.7
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 200
	}
	return &Provider{
		apiKey:      cfg.APIKey,
		model:       model,
		temperature: temp,
		maxTokens:   maxTokens,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the backend identifier.
func (p *Provider) Name() string { return "groq" }

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

// Close is a no-op — connections are pooled by the HTTP client.
func (p *Provider) Close() error { return nil }

// --- Wire types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *Provider) generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("groq api key not configured")
	}

	reqBody := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, chatURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("groq failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	text := result.Choices[0].Message.Content
	slog.Debug("groq generation complete", "model", p.model, "text_length", len(text))
	return text, nil
}

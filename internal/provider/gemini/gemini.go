// Package gemini implements the generation Provider using the Google
// Generative Language REST API (AI Studio).
package gemini

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

const baseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Provider calls the Gemini generateContent endpoint.
type Provider struct {
	apiKey string
	model  string
	client *http.Client
}

// New creates a Gemini provider from config.
func New(cfg config.GeminiConfig) *Provider {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Provider{
		apiKey: cfg.APIKey,
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the backend identifier.
func (p *Provider) Name() string { return "gemini" }

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

type generateRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (p *Provider) generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("gemini api key not configured")
	}

	reqBody := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
	}
	if systemInstruction != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: systemInstruction}}}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("gemini failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	text := result.Candidates[0].Content.Parts[0].Text
	slog.Debug("gemini generation complete", "model", p.model, "text_length", len(text))
	return text, nil
}

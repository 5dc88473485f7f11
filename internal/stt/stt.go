// Package stt defines the speech-to-text contract and its whisper client.
//
// Any OpenAI-compatible transcription endpoint works: whisper.cpp server,
// faster-whisper, or the hosted OpenAI API.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/bluehawana/totoyai/internal/config"
)

// Result is the outcome of one transcription.
type Result struct {
	// Text is the recognized utterance.
	Text string

	// Confidence is the recognizer's confidence in [0,1]. Whisper does not
	// report one, so the client fixes it at 1.
	Confidence float64

	// Language is the ISO-639-1 code the recognizer detected, or "" when
	// it reported none. Callers fall back to their own heuristic then.
	Language string
}

// TranscriptionError wraps any recognizer failure behind one domain type.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// Transcriber converts audio bytes to text.
type Transcriber interface {
	// Transcribe recognizes one utterance. sampleRate is in Hz.
	Transcribe(ctx context.Context, audio []byte, sampleRate int) (*Result, error)
}

// WhisperClient implements Transcriber against an OpenAI-compatible
// transcription endpoint (multipart upload, verbose_json response).
type WhisperClient struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

// NewWhisperClient creates a whisper client from config.
func NewWhisperClient(cfg config.STTConfig) *WhisperClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperClient{
		endpoint: cfg.Endpoint,
		model:    model,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// Transcribe uploads the audio and returns the recognized text.
func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte, sampleRate int) (*Result, error) {
	res, err := c.transcribe(ctx, audio, sampleRate)
	if err != nil {
		return nil, &TranscriptionError{Err: err}
	}
	return res, nil
}

func (c *WhisperClient) transcribe(ctx context.Context, audio []byte, sampleRate int) (*Result, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio payload")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}

	_ = writer.WriteField("model", c.model)
	_ = writer.WriteField("response_format", "verbose_json")
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("transcription failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding transcription: %w", err)
	}

	slog.Debug("transcription complete",
		"text_length", len(result.Text),
		"language", result.Language,
		"sample_rate", sampleRate)

	return &Result{
		Text:       result.Text,
		Confidence: 1.0,
		Language:   result.Language,
	}, nil
}

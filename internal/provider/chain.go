package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bluehawana/totoyai/internal/conversation"
)

// Chain tries each provider in configured order and returns the first
// success. A backend that errors is skipped for that call only — there is no
// circuit breaking, the order is simply retried on every call.
type Chain struct {
	providers []Provider
}

// NewChain builds a fallback chain. At least one provider is required.
func NewChain(providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, errors.New("fallback chain needs at least one provider")
	}
	return &Chain{providers: providers}, nil
}

// Name lists the chained backends in order.
func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Generate delegates to the first provider that succeeds.
func (c *Chain) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	var lastErr error
	for _, p := range c.providers {
		text, err := p.Generate(ctx, prompt, systemInstruction)
		if err == nil {
			return text, nil
		}
		slog.Warn("provider failed, trying next", "backend", p.Name(), "error", err)
		lastErr = err
	}
	return "", &GenerationError{Backend: c.Name(), Err: fmt.Errorf("all providers failed: %w", lastErr)}
}

// GenerateConversation classifies once, then runs the prompt through the
// chain. The intent is valid even when every backend fails.
func (c *Chain) GenerateConversation(ctx context.Context, utterance, lang string, history []conversation.Message) (string, conversation.Intent, error) {
	return Converse(ctx, c, utterance, lang, history)
}

// Close closes every chained provider, keeping the first error.
func (c *Chain) Close() error {
	var firstErr error
	for _, p := range c.providers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

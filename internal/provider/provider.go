// Package provider defines the interface for hosted and local text
// generation backends.
//
// Every backend exposes the same two operations regardless of its wire
// format. Intent classification always happens locally — the model's output
// is conversational text only, never the Intent value.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/bluehawana/totoyai/internal/conversation"
	"github.com/bluehawana/totoyai/internal/intent"
	"github.com/bluehawana/totoyai/internal/language"
	"github.com/bluehawana/totoyai/internal/story"
)

// ContextWindow is how many trailing messages of session history are folded
// into the prompt. Callers loading history should trim to this window before
// handing it over; BuildPrompt trims again regardless.
const ContextWindow = 3

// Provider is the interface every generation backend implements.
type Provider interface {
	// Name returns the backend identifier (e.g. "gemini", "groq", "local").
	Name() string

	// Generate produces text for a prompt under a system instruction.
	Generate(ctx context.Context, prompt, systemInstruction string) (string, error)

	// GenerateConversation produces a child-appropriate reply to an
	// utterance, in the given language, optionally grounded in recent
	// session history. The returned intent is classified locally.
	GenerateConversation(ctx context.Context, utterance, lang string, history []conversation.Message) (string, conversation.Intent, error)

	// Close releases any resources held by the provider.
	Close() error
}

// GenerationError wraps any backend failure behind one domain error type so
// callers never depend on a transport or vendor error shape.
type GenerationError struct {
	Backend string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Backend, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// BuildPrompt folds the trailing history window into a labeled block ahead
// of the new utterance. With no history the utterance is the whole prompt.
func BuildPrompt(utterance string, history []conversation.Message) string {
	if len(history) == 0 {
		return utterance
	}
	if len(history) > ContextWindow {
		history = history[len(history)-ContextWindow:]
	}

	var sb strings.Builder
	sb.WriteString("Previous conversation:\n")
	for _, msg := range history {
		sb.WriteString(string(msg.Role))
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("\nChild: ")
	sb.WriteString(utterance)
	return sb.String()
}

// GenerateStory renders one catalog story in the given language under the
// storybook narrator instruction. Used by the conversation pipeline's story
// branch and by offline pre-rendering.
func GenerateStory(ctx context.Context, p Provider, seriesID, storyID, lang string) (string, error) {
	prompt, ok := story.Prompt(seriesID, storyID, lang)
	if !ok {
		return "", fmt.Errorf("unknown story %s/%s", seriesID, storyID)
	}
	return p.Generate(ctx, prompt, language.StorybookPersona)
}

// Converse is the shared GenerateConversation implementation: classify
// locally, build the windowed prompt, select the per-locale persona, and
// delegate text generation to the backend.
func Converse(ctx context.Context, p Provider, utterance, lang string, history []conversation.Message) (string, conversation.Intent, error) {
	detected := intent.Classify(utterance)

	text, err := p.Generate(ctx, BuildPrompt(utterance, history), language.Persona(lang))
	if err != nil {
		return "", detected, err
	}
	return text, detected, nil
}

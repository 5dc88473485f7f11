// Package orchestrator implements the core conversation pipeline.
//
// One inbound utterance moves through transcription, language detection,
// session context loading, generation with provider fallback, content
// filtering, persistence, and synthesis. Each stage has its own failure
// policy: a dead session store degrades to a stateless turn, a dead TTS
// degrades to a text-only reply, and a dead generation chain degrades to a
// fixed apology — the device never sees a raw internal error, only
// transcription failures propagate as typed errors to the API boundary.
package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/bluehawana/totoyai/internal/conversation"
	"github.com/bluehawana/totoyai/internal/language"
	"github.com/bluehawana/totoyai/internal/provider"
	"github.com/bluehawana/totoyai/internal/safety"
	"github.com/bluehawana/totoyai/internal/session"
	"github.com/bluehawana/totoyai/internal/stt"
	"github.com/bluehawana/totoyai/internal/tts"
)

// Orchestrator composes the pipeline stages. All collaborators are injected
// at construction; the orchestrator owns no connections itself.
type Orchestrator struct {
	transcriber stt.Transcriber
	generator   provider.Provider
	sessions    session.Store
	filter      *safety.Filter
	synthesizer tts.Synthesizer // nil if TTS is disabled
}

// New creates an Orchestrator. transcriber and synthesizer may be nil when
// the corresponding capability is disabled; generator, sessions, and filter
// are required.
func New(transcriber stt.Transcriber, generator provider.Provider, sessions session.Store, filter *safety.Filter, synthesizer tts.Synthesizer) *Orchestrator {
	return &Orchestrator{
		transcriber: transcriber,
		generator:   generator,
		sessions:    sessions,
		filter:      filter,
		synthesizer: synthesizer,
	}
}

// Handle processes a single turn through the full pipeline.
func (o *Orchestrator) Handle(ctx context.Context, req *conversation.TurnRequest) (*conversation.TurnResult, error) {
	start := time.Now()
	logger := slog.With("session_id", req.SessionID, "device_id", req.DeviceID)

	// Transcribe audio if present. STT failures are the one hard error:
	// without an utterance there is nothing to answer.
	transcript := req.Text
	var sttLang string
	if req.HasAudio() {
		if o.transcriber == nil {
			return nil, &stt.TranscriptionError{Err: errors.New("no transcriber configured")}
		}
		res, err := o.transcriber.Transcribe(ctx, req.Audio, req.SampleRate)
		if err != nil {
			logger.Error("transcription failed", "error", err)
			return nil, err
		}
		transcript = res.Text
		sttLang = language.Normalize(res.Language)
		logger.Debug("transcription complete", "text_length", len(transcript), "language", sttLang)
	}
	if transcript == "" {
		return nil, &stt.TranscriptionError{Err: errors.New("request has no audio and no text")}
	}

	// The recognizer's language report is authoritative when present; the
	// keyword heuristic only decides for text input.
	lang := sttLang
	if lang == "" {
		lang = language.Detect(transcript)
	}

	// Load session context. A missing or unreachable session degrades to a
	// stateless turn rather than blocking the reply.
	var history []conversation.Message
	sess, err := o.sessions.Get(ctx, req.SessionID)
	switch {
	case err == nil:
		history = sess.Window(provider.ContextWindow)
	case errors.Is(err, session.ErrNotFound):
		logger.Debug("no session, starting fresh")
	default:
		logger.Warn("session store unavailable, continuing stateless", "error", err)
	}

	// Generate the reply. When the whole provider chain fails the toy
	// still answers with the per-locale apology.
	text, detected, err := o.generator.GenerateConversation(ctx, transcript, lang, history)
	if err != nil {
		logger.Error("generation failed, using fallback", "error", err)
		text = language.GenerationFallback(lang)
		detected = conversation.IntentGeneral
	}

	// Screen the reply. A policy match replaces the whole text; the turn
	// still completes normally.
	text = o.filter.Apply(text, lang)

	// Record the turn. Persistence is best-effort relative to delivering
	// the reply.
	o.persist(ctx, logger, req, transcript, text, detected)

	result := &conversation.TurnResult{
		SessionID:    req.SessionID,
		Transcript:   transcript,
		ResponseText: text,
		Intent:       detected,
		Language:     lang,
		Timestamp:    time.Now().UTC(),
	}

	// Synthesize. A dead TTS backend means a text-only reply; the spoken
	// substitute sentence is kept for the device's local retry prompt.
	if o.synthesizer != nil {
		audio, contentType, err := o.speak(ctx, text, lang)
		if err != nil {
			logger.Warn("synthesis failed, returning text only", "error", err)
			result.SpokenFallback = language.SynthesisFallback(lang)
		} else {
			result.Audio = audio
			result.AudioContentType = contentType
		}
	}

	logger.Info("turn complete",
		"intent", detected,
		"language", lang,
		"has_audio", len(result.Audio) > 0,
		"duration", time.Since(start))
	return result, nil
}

// persist appends the turn to the session, creating it on first use. On a
// story turn the reply is also kept as the current story so the child can
// ask for a continuation. All failures here are logged and absorbed.
func (o *Orchestrator) persist(ctx context.Context, logger *slog.Logger, req *conversation.TurnRequest, userText, assistantText string, detected conversation.Intent) {
	_, err := o.sessions.AppendTurn(ctx, req.SessionID, userText, assistantText)
	if errors.Is(err, session.ErrNotFound) {
		if _, err = o.sessions.Create(ctx, req.SessionID, req.DeviceID); err == nil {
			_, err = o.sessions.AppendTurn(ctx, req.SessionID, userText, assistantText)
		}
	}
	if err != nil {
		logger.Warn("session update failed, reply not recorded", "error", err)
		return
	}

	if detected == conversation.IntentStory {
		if _, err := o.sessions.SetStory(ctx, req.SessionID, assistantText); err != nil {
			logger.Warn("story context update failed", "error", err)
		}
	}
}

// speak renders the reply text and buffers the stream for delivery.
func (o *Orchestrator) speak(ctx context.Context, text, lang string) ([]byte, string, error) {
	stream, err := o.synthesizer.Synthesize(ctx, text, tts.SynthesizeOpts{
		Language: lang,
		Voice:    language.Voice(lang),
	})
	if err != nil {
		return nil, "", err
	}
	defer stream.Audio.Close()

	audio, err := io.ReadAll(stream.Audio)
	if err != nil {
		return nil, "", &tts.SynthesisError{Backend: o.synthesizer.Name(), Err: err}
	}
	return audio, stream.ContentType, nil
}

package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bluehawana/totoyai/internal/conversation"
	"github.com/bluehawana/totoyai/internal/story"
	"github.com/bluehawana/totoyai/internal/stt"
)

// authRequest is the device credential payload.
type authRequest struct {
	DeviceID     string `json:"device_id"`
	DeviceSecret string `json:"device_secret"`
}

// conversationRequest is one inbound turn from a device.
type conversationRequest struct {
	DeviceID   string    `json:"device_id"`
	SessionID  string    `json:"session_id"`
	AudioData  string    `json:"audio_data,omitempty"` // base64-encoded
	Text       string    `json:"text,omitempty"`
	SampleRate int       `json:"sample_rate,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// conversationResponse is the reply to a turn.
type conversationResponse struct {
	SessionID      string    `json:"session_id"`
	Transcript     string    `json:"transcript"`
	ResponseText   string    `json:"response_text"`
	Intent         string    `json:"intent"`
	Language       string    `json:"language"`
	AudioURL       *string   `json:"audio_url"`
	SpokenFallback string    `json:"spoken_fallback,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// handleHealth reports service liveness.
//
// @Summary  Health check
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /api/v1/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// handleAuth authenticates a device and returns a token pair.
//
// @Summary  Authenticate a device
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    credentials  body      authRequest  true  "Device credentials"
// @Success  200          {object}  auth.Tokens
// @Failure  400          {object}  ErrorResponse
// @Router   /api/v1/auth/device [post]
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Invalid request body")
		return
	}
	if req.DeviceID == "" || req.DeviceSecret == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "device_id and device_secret are required")
		return
	}

	// TODO: validate the secret against the registered-device table once
	// device provisioning lands.
	tokens, err := s.auth.Issue(req.DeviceID)
	if err != nil {
		slog.Error("token issuance failed", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "Oops! Something went wrong. Please try again.")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tokens)
}

// handleConversation runs one turn through the pipeline.
//
// @Summary   Process a conversation turn
// @Description  Accepts base64 audio or pre-transcribed text, runs the
// @Description  STT → generation → filter → TTS pipeline, and returns the
// @Description  reply with a short-lived audio URL.
// @Tags      conversation
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     turn  body      conversationRequest  true  "Turn request"
// @Success   200   {object}  conversationResponse
// @Failure   400   {object}  ErrorResponse
// @Failure   401   {object}  ErrorResponse
// @Failure   502   {object}  ErrorResponse
// @Router    /api/v1/conversation [post]
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	var req conversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "session_id is required")
		return
	}

	// The token, not the body, decides which device is talking.
	claims := deviceClaims(r.Context())

	turn := &conversation.TurnRequest{
		DeviceID:   claims.DeviceID,
		SessionID:  req.SessionID,
		Text:       req.Text,
		SampleRate: req.SampleRate,
		Timestamp:  req.Timestamp,
	}
	if req.AudioData != "" {
		audio, err := base64.StdEncoding.DecodeString(req.AudioData)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "audio_data is not valid base64")
			return
		}
		turn.Audio = audio
	}

	result, err := s.turns.Handle(r.Context(), turn)
	if err != nil {
		var transcriptionErr *stt.TranscriptionError
		if errors.As(err, &transcriptionErr) {
			slog.Warn("turn rejected", "error", err)
			writeError(w, http.StatusBadGateway, codeTranscription,
				"I didn't quite catch that. Could you please say that again?")
			return
		}
		slog.Error("turn failed", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "Oops! Something went wrong. Please try again.")
		return
	}

	resp := conversationResponse{
		SessionID:      result.SessionID,
		Transcript:     result.Transcript,
		ResponseText:   result.ResponseText,
		Intent:         string(result.Intent),
		Language:       result.Language,
		SpokenFallback: result.SpokenFallback,
		Timestamp:      result.Timestamp,
	}
	if len(result.Audio) > 0 {
		id := s.audio.put(result.Audio, result.AudioContentType)
		url := "/api/v1/audio/" + id
		resp.AudioURL = &url
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleAudio streams a cached synthesized reply.
//
// @Summary   Fetch synthesized reply audio
// @Tags      conversation
// @Produce   audio/mpeg
// @Produce   audio/wav
// @Security  BearerAuth
// @Param     id   path      string  true  "Audio id from the conversation response"
// @Success   200  {file}    binary
// @Failure   404  {object}  ErrorResponse
// @Router    /api/v1/audio/{id} [get]
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, contentType, ok := s.audio.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "Audio not found or expired")
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(data)
}

// handleWeather returns child-friendly current conditions.
//
// @Summary   Get weather for a location
// @Tags      weather
// @Produce   json
// @Security  BearerAuth
// @Param     location  query     string  false  "Location name (default Stockholm)"
// @Success   200       {object}  weather.Report
// @Failure   502       {object}  ErrorResponse
// @Router    /api/v1/weather [get]
func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	report, err := s.weather.Current(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		slog.Error("weather lookup failed", "error", err)
		writeError(w, http.StatusBadGateway, codeWeather,
			"I can't check the weather right now, but you can look outside!")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}

// handleStories lists the curated story catalog.
//
// @Summary   List story series
// @Tags      stories
// @Produce   json
// @Security  BearerAuth
// @Success   200  {array}  story.Series
// @Router    /api/v1/stories [get]
func (s *Server) handleStories(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(story.AllSeries())
}

// handleDeleteSession ends a conversation explicitly.
//
// @Summary   Delete a session
// @Tags      conversation
// @Security  BearerAuth
// @Param     id  path  string  true  "Session id"
// @Success   204
// @Router    /api/v1/sessions/{id} [delete]
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		slog.Error("session delete failed", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "Oops! Something went wrong. Please try again.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

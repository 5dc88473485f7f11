package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes surfaced to devices. Internal detail never leaves the server.
const (
	codeInvalidRequest = "INVALID_REQUEST"
	codeUnauthorized   = "UNAUTHORIZED"
	codeTranscription  = "TRANSCRIPTION_FAILED"
	codeWeather        = "WEATHER_UNAVAILABLE"
	codeNotFound       = "NOT_FOUND"
	codeInternal       = "INTERNAL_ERROR"
)

// ErrorResponse is the single error envelope for every API failure.
type ErrorResponse struct {
	Error            bool   `json:"error"`
	ErrorCode        string `json:"error_code"`
	ErrorMessage     string `json:"error_message"`
	FallbackAudioURL string `json:"fallback_audio_url,omitempty"`
	RetryAfter       int    `json:"retry_after,omitempty"`
}

// writeError sends the envelope with a safe, generic message.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:        true,
		ErrorCode:    code,
		ErrorMessage: message,
	})
}

// recoverer is the last line of defense: it logs full diagnostic detail
// server-side and returns one generic internal error to the caller.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("unhandled panic",
					"panic", rec,
					"path", r.URL.Path,
					"method", r.Method)
				writeError(w, http.StatusInternalServerError, codeInternal,
					"Oops! Something went wrong. Please try again.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

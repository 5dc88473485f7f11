// Package api exposes the device-facing HTTP surface: device auth, the
// conversation turn endpoint, weather, the story catalog, and audio
// delivery for synthesized replies.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/bluehawana/totoyai/internal/auth"
	"github.com/bluehawana/totoyai/internal/conversation"
	"github.com/bluehawana/totoyai/internal/session"
	"github.com/bluehawana/totoyai/internal/weather"
)

// TurnHandler processes one conversation turn. Implemented by the
// orchestrator; narrowed to an interface so the API tests can fake it.
type TurnHandler interface {
	Handle(ctx context.Context, req *conversation.TurnRequest) (*conversation.TurnResult, error)
}

// WeatherClient answers location queries. Implemented by the weather client.
type WeatherClient interface {
	Current(ctx context.Context, location string) (*weather.Report, error)
}

// Server is the device-facing HTTP server.
type Server struct {
	port     int
	turns    TurnHandler
	auth     *auth.Authenticator
	sessions session.Store
	weather  WeatherClient
	audio    *audioCache
	server   *http.Server
}

// New creates an API server.
func New(port int, turns TurnHandler, authenticator *auth.Authenticator, sessions session.Store, weatherClient WeatherClient) *Server {
	return &Server{
		port:     port,
		turns:    turns,
		auth:     authenticator,
		sessions: sessions,
		weather:  weatherClient,
		audio:    newAudioCache(),
	}
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/auth/device", s.handleAuth)
	mux.HandleFunc("POST /api/v1/conversation", s.requireDevice(s.handleConversation))
	mux.HandleFunc("GET /api/v1/audio/{id}", s.requireDevice(s.handleAudio))
	mux.HandleFunc("GET /api/v1/weather", s.requireDevice(s.handleWeather))
	mux.HandleFunc("GET /api/v1/stories", s.requireDevice(s.handleStories))
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.requireDevice(s.handleDeleteSession))

	// Swagger UI — serves the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return recoverer(mux)
}

// ListenAndServe starts the API server. It blocks until the context is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("api server listening", "port", s.port)

	go func() {
		<-ctx.Done()
		slog.Info("api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("api listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

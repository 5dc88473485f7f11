// Totoyai is the conversational backend for children's toys. It turns a
// recorded utterance into a safe spoken reply: transcribe, detect language,
// generate with a fallback chain of LLM providers, filter for child safety,
// and synthesize speech.
//
// Usage:
//
//	totoyai [flags]
//	totoyai --config /path/to/totoyai.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bluehawana/totoyai/internal/api"
	"github.com/bluehawana/totoyai/internal/auth"
	"github.com/bluehawana/totoyai/internal/config"
	"github.com/bluehawana/totoyai/internal/health"
	"github.com/bluehawana/totoyai/internal/orchestrator"
	"github.com/bluehawana/totoyai/internal/provider"
	geminiprovider "github.com/bluehawana/totoyai/internal/provider/gemini"
	groqprovider "github.com/bluehawana/totoyai/internal/provider/groq"
	localprovider "github.com/bluehawana/totoyai/internal/provider/local"
	"github.com/bluehawana/totoyai/internal/safety"
	"github.com/bluehawana/totoyai/internal/session"
	"github.com/bluehawana/totoyai/internal/stt"
	"github.com/bluehawana/totoyai/internal/tts"
	edgetts "github.com/bluehawana/totoyai/internal/tts/edge"
	pipertts "github.com/bluehawana/totoyai/internal/tts/piper"
	"github.com/bluehawana/totoyai/internal/weather"

	_ "github.com/bluehawana/totoyai/docs"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/totoyai.local.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("totoyai %s\n", version)
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging.
	config.SetupLogging(cfg.Logging)
	slog.Info("totoyai starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Build the generation fallback chain in configured order.
	var providers []provider.Provider
	for _, backend := range cfg.Provider.Backends {
		switch backend {
		case "gemini":
			providers = append(providers, geminiprovider.New(cfg.Provider.Gemini))
			slog.Info("using gemini provider", "model", cfg.Provider.Gemini.Model)
		case "groq":
			providers = append(providers, groqprovider.New(cfg.Provider.Groq))
			slog.Info("using groq provider", "model", cfg.Provider.Groq.Model)
		case "local":
			providers = append(providers, localprovider.New(cfg.Provider.Local))
			slog.Info("using local provider",
				"endpoint", cfg.Provider.Local.Endpoint,
				"model", cfg.Provider.Local.Model)
		default:
			slog.Error("unknown provider backend", "backend", backend)
			os.Exit(1)
		}
	}
	generator, err := provider.NewChain(providers...)
	if err != nil {
		slog.Error("no provider backends configured", "error", err)
		os.Exit(1)
	}
	defer generator.Close()

	// Initialize the speech synthesizer.
	var synthesizer tts.Synthesizer
	switch cfg.TTS.Backend {
	case "edge":
		synthesizer = edgetts.New(cfg.TTS.Edge)
		slog.Info("using edge tts")
	case "piper":
		synthesizer = pipertts.New(cfg.TTS.Piper)
		slog.Info("using piper tts", "endpoint", cfg.TTS.Piper.Endpoint)
	default:
		slog.Error("unknown tts backend", "backend", cfg.TTS.Backend)
		os.Exit(1)
	}
	defer synthesizer.Close()

	transcriber := stt.NewWhisperClient(cfg.STT)
	sessions := session.NewRedisStore(cfg.Session.RedisURL, cfg.Session.TTL)
	defer sessions.Close()

	pipeline := orchestrator.New(transcriber, generator, sessions, safety.New(), synthesizer)

	authenticator := auth.New(cfg.Auth)
	weatherClient := weather.New(cfg.Weather)
	apiServer := api.New(cfg.Server.Port, pipeline, authenticator, sessions, weatherClient)

	// Start health check servers.
	healthServer := health.New(cfg.Server.HealthPort, cfg.Server.GRPCHealthPort)
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	// Start the API server.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := apiServer.ListenAndServe(ctx); err != nil {
			slog.Error("api server failed", "error", err)
			cancel()
		}
	}()

	healthServer.SetReady(true)
	slog.Info("totoyai ready",
		"port", cfg.Server.Port,
		"health_port", cfg.Server.HealthPort)

	// Block until shutdown signal.
	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")

	if err := apiServer.Close(); err != nil {
		slog.Error("api server close error", "error", err)
	}

	wg.Wait()
	slog.Info("totoyai stopped")
}

// Storygen pre-renders the built-in story catalog to audio files. It runs
// the same provider chain and synthesizer as the daemon, but offline, so a
// fleet can ship toys with stories already on device.
//
// Usage:
//
//	storygen --out ./stories
//	storygen --config configs/totoyai.local.yaml --series trex --lang sv
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bluehawana/totoyai/internal/config"
	"github.com/bluehawana/totoyai/internal/language"
	"github.com/bluehawana/totoyai/internal/provider"
	geminiprovider "github.com/bluehawana/totoyai/internal/provider/gemini"
	groqprovider "github.com/bluehawana/totoyai/internal/provider/groq"
	localprovider "github.com/bluehawana/totoyai/internal/provider/local"
	"github.com/bluehawana/totoyai/internal/story"
	"github.com/bluehawana/totoyai/internal/tts"
	edgetts "github.com/bluehawana/totoyai/internal/tts/edge"
	pipertts "github.com/bluehawana/totoyai/internal/tts/piper"
)

func main() {
	configFile := flag.String("config", "", "path to config file")
	outDir := flag.String("out", "stories", "output directory for rendered audio")
	seriesFilter := flag.String("series", "", "render only this series id (default: all)")
	langFlag := flag.String("lang", "sv,en", "comma-separated language codes to render")
	textOnly := flag.Bool("text-only", false, "generate story text without audio")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	config.SetupLogging(cfg.Logging)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var providers []provider.Provider
	for _, backend := range cfg.Provider.Backends {
		switch backend {
		case "gemini":
			providers = append(providers, geminiprovider.New(cfg.Provider.Gemini))
		case "groq":
			providers = append(providers, groqprovider.New(cfg.Provider.Groq))
		case "local":
			providers = append(providers, localprovider.New(cfg.Provider.Local))
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

	var synthesizer tts.Synthesizer
	if !*textOnly {
		switch cfg.TTS.Backend {
		case "edge":
			synthesizer = edgetts.New(cfg.TTS.Edge)
		case "piper":
			synthesizer = pipertts.New(cfg.TTS.Piper)
		default:
			slog.Error("unknown tts backend", "backend", cfg.TTS.Backend)
			os.Exit(1)
		}
		defer synthesizer.Close()
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		slog.Error("creating output directory", "dir", *outDir, "error", err)
		os.Exit(1)
	}

	langs := strings.Split(*langFlag, ",")
	rendered, failed := 0, 0

	for _, series := range story.AllSeries() {
		if *seriesFilter != "" && series.ID != *seriesFilter {
			continue
		}
		for _, st := range series.Stories {
			for _, lang := range langs {
				lang = language.Normalize(strings.TrimSpace(lang))
				if err := render(ctx, generator, synthesizer, *outDir, series.ID, st.ID, lang); err != nil {
					slog.Error("story render failed",
						"series", series.ID, "story", st.ID, "lang", lang, "error", err)
					failed++
					continue
				}
				rendered++
			}
		}
	}

	slog.Info("storygen finished", "rendered", rendered, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func render(ctx context.Context, generator provider.Provider, synthesizer tts.Synthesizer, outDir, seriesID, storyID, lang string) error {
	slog.Info("generating story", "series", seriesID, "story", storyID, "lang", lang)
	text, err := provider.GenerateStory(ctx, generator, seriesID, storyID, lang)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	base := filepath.Join(outDir, fmt.Sprintf("%s_%s_%s", seriesID, storyID, lang))
	if err := os.WriteFile(base+".txt", []byte(text), 0o644); err != nil {
		return fmt.Errorf("write text: %w", err)
	}

	if synthesizer == nil {
		return nil
	}

	audio, contentType, err := tts.Buffer(ctx, synthesizer, text, tts.SynthesizeOpts{Language: lang})
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}

	ext := ".mp3"
	if contentType == "audio/wav" {
		ext = ".wav"
	}
	if err := os.WriteFile(base+ext, audio, 0o644); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}

	slog.Info("story rendered", "file", base+ext, "bytes", len(audio))
	return nil
}

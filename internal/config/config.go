// Package config handles loading and validating the totoyai configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the totoyai daemon.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Session  SessionConfig  `mapstructure:"session"`
	Provider ProviderConfig `mapstructure:"provider"`
	STT      STTConfig      `mapstructure:"stt"`
	TTS      TTSConfig      `mapstructure:"tts"`
	Weather  WeatherConfig  `mapstructure:"weather"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds the API and health server settings.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	HealthPort     int `mapstructure:"health_port"`
	GRPCHealthPort int `mapstructure:"grpc_health_port"`
}

// AuthConfig holds device token settings.
type AuthConfig struct {
	// Secret signs device JWTs. Use a "${VAR}" reference in config files.
	Secret     string        `mapstructure:"secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

// SessionConfig holds session store settings.
type SessionConfig struct {
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ProviderConfig selects and configures the generation backends.
// Backends lists the fallback order; each named backend must have its
// section configured.
type ProviderConfig struct {
	Backends []string     `mapstructure:"backends"` // e.g. ["gemini", "groq", "local"]
	Gemini   GeminiConfig `mapstructure:"gemini"`
	Groq     GroqConfig   `mapstructure:"groq"`
	Local    LocalConfig  `mapstructure:"local"`
}

// GeminiConfig holds Google AI Studio settings.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// GroqConfig holds Groq API settings (OpenAI-compatible chat completions).
type GroqConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// LocalConfig holds self-hosted LLM settings (Ollama).
type LocalConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	Model        string        `mapstructure:"model"`
	ChatTimeout  time.Duration `mapstructure:"chat_timeout"`
	StoryTimeout time.Duration `mapstructure:"story_timeout"`
}

// STTConfig holds speech-to-text settings. Any OpenAI-compatible
// transcription endpoint works (whisper.cpp server, faster-whisper).
type STTConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// TTSConfig selects and configures the text-to-speech backend.
type TTSConfig struct {
	Backend string      `mapstructure:"backend"` // "edge" or "piper"
	Edge    EdgeConfig  `mapstructure:"edge"`
	Piper   PiperConfig `mapstructure:"piper"`
}

// EdgeConfig holds Microsoft Edge neural TTS settings.
type EdgeConfig struct {
	// Voices maps ISO-639-1 language codes to neural voice names,
	// overriding the built-in defaults.
	Voices  map[string]string `mapstructure:"voices"`
	Timeout time.Duration     `mapstructure:"timeout"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
type PiperConfig struct {
	Endpoint string            `mapstructure:"endpoint"` // Wyoming TCP endpoint (host:port)
	Voices   map[string]string `mapstructure:"voices"`   // ISO-639-1 language code -> voice model name
}

// WeatherConfig holds Open-Meteo client settings.
type WeatherConfig struct {
	DefaultLocation string        `mapstructure:"default_location"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./totoyai.yaml, ./configs/totoyai.yaml, /etc/totoyai/totoyai.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("server.grpc_health_port", 0)
	v.SetDefault("auth.access_ttl", time.Hour)
	v.SetDefault("auth.refresh_ttl", 30*24*time.Hour)
	v.SetDefault("session.redis_url", "redis://localhost:6379/0")
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("provider.backends", []string{"gemini", "groq", "local"})
	v.SetDefault("provider.gemini.model", "gemini-2.5-flash")
	v.SetDefault("provider.groq.model", "llama-3.3-70b-versatile")
	v.SetDefault("provider.groq.temperature", 0.7)
	v.SetDefault("provider.groq.max_tokens", 200)
	v.SetDefault("provider.local.endpoint", "http://localhost:11434")
	v.SetDefault("provider.local.model", "llama3.1")
	v.SetDefault("provider.local.chat_timeout", 30*time.Second)
	v.SetDefault("provider.local.story_timeout", 60*time.Second)
	v.SetDefault("stt.endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("stt.model", "whisper-1")
	v.SetDefault("stt.timeout", 30*time.Second)
	v.SetDefault("tts.backend", "edge")
	v.SetDefault("tts.edge.timeout", 30*time.Second)
	v.SetDefault("tts.piper.endpoint", "localhost:10200")
	v.SetDefault("weather.default_location", "stockholm")
	v.SetDefault("weather.timeout", 10*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("totoyai")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/totoyai")
	}

	// Environment variables: TOTOYAI_SERVER_PORT, TOTOYAI_PROVIDER_GEMINI_API_KEY, etc.
	v.SetEnvPrefix("TOTOYAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional — env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${GROQ_API_KEY}")
	cfg.Auth.Secret = resolveEnvRef(cfg.Auth.Secret)
	cfg.Provider.Gemini.APIKey = resolveEnvRef(cfg.Provider.Gemini.APIKey)
	cfg.Provider.Groq.APIKey = resolveEnvRef(cfg.Provider.Groq.APIKey)
	cfg.STT.APIKey = resolveEnvRef(cfg.STT.APIKey)

	if cfg.Auth.Secret == "" {
		return nil, fmt.Errorf("auth.secret is required (set TOTOYAI_AUTH_SECRET)")
	}

	return &cfg, nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

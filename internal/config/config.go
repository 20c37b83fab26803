// Package config handles loading and validating the vocacast configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the vocacast daemon.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	LLM      LLMConfig      `mapstructure:"llm"`
	TTS      TTSConfig      `mapstructure:"tts"`
	Assembly AssemblyConfig `mapstructure:"assembly"`
	Vocab    VocabConfig    `mapstructure:"vocab"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server and request lifecycle settings.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ArtifactTTL    time.Duration `mapstructure:"artifact_ttl"`
}

// LLMConfig holds language-model collaborator settings. UserTemplate is the
// passage user prompt and must contain the {vocab} placeholder.
type LLMConfig struct {
	APIKey       string      `mapstructure:"api_key"`
	BaseURL      string      `mapstructure:"base_url"`
	Model        string      `mapstructure:"model"`
	Temperature  float64     `mapstructure:"temperature"`
	TopP         float64     `mapstructure:"top_p"`
	UserTemplate string      `mapstructure:"user_template"`
	Passage      StageConfig `mapstructure:"passage"`
	Interview    StageConfig `mapstructure:"interview"`
	Dialogue     StageConfig `mapstructure:"dialogue"`
}

// StageConfig holds per-stage prompt and output budget overrides. Empty
// fields fall back to the built-in prompts.
type StageConfig struct {
	SystemPrompt string `mapstructure:"system_prompt"`
	MaxTokens    int    `mapstructure:"max_tokens"`
}

// TTSConfig holds speech synthesis collaborator settings.
type TTSConfig struct {
	APIKey           string `mapstructure:"api_key"`
	Endpoint         string `mapstructure:"endpoint"`
	LanguageCode     string `mapstructure:"language_code"`
	InterviewerVoice string `mapstructure:"interviewer_voice"`
	GuestVoice       string `mapstructure:"guest_voice"`
}

// AssemblyConfig holds audio concatenation settings.
type AssemblyConfig struct {
	MaxPauseMs int    `mapstructure:"max_pause_ms"`
	FFmpegPath string `mapstructure:"ffmpeg_path"`
}

// VocabConfig holds CSV ingestion settings.
type VocabConfig struct {
	Column string `mapstructure:"column"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and
// defaults. If configFile is non-empty it is used directly; otherwise the
// standard search order applies: ./vocacast.yaml, ./configs/vocacast.yaml,
// /etc/vocacast/vocacast.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", "10m")
	v.SetDefault("server.artifact_ttl", "30m")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.top_p", 1.0)
	v.SetDefault("llm.passage.max_tokens", 1024)
	v.SetDefault("llm.interview.max_tokens", 2048)
	v.SetDefault("llm.dialogue.max_tokens", 4096)
	v.SetDefault("tts.language_code", "en-US")
	v.SetDefault("tts.interviewer_voice", "en-US-Wavenet-F")
	v.SetDefault("tts.guest_voice", "en-US-Wavenet-D")
	v.SetDefault("assembly.max_pause_ms", 300)
	v.SetDefault("assembly.ffmpeg_path", "ffmpeg")
	v.SetDefault("vocab.column", "words")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("vocacast")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/vocacast")
	}

	// Environment variables: VOCACAST_SERVER_PORT, VOCACAST_LLM_MODEL, etc.
	v.SetEnvPrefix("VOCACAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional; env vars and defaults are sufficient)
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

	// Resolve env var references in sensitive fields (e.g., "${OPENAI_API_KEY}")
	cfg.LLM.APIKey = resolveEnvRef(cfg.LLM.APIKey)
	cfg.TTS.APIKey = resolveEnvRef(cfg.TTS.APIKey)

	// Conventional variables work without any config file entry.
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.TTS.APIKey == "" {
		cfg.TTS.APIKey = os.Getenv("GOOGLE_TTS_API_KEY")
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

// Vocacast is a podcast production daemon that turns vocabulary word lists
// into two-voice interview shows: an LLM writes the script, a TTS service
// voices it, and ffmpeg merges the clips into a single MP3.
//
// Usage:
//
//	vocacast [flags]
//	vocacast --config /path/to/vocacast.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/vocacast/vocacast/docs"
	"github.com/vocacast/vocacast/internal/assemble"
	"github.com/vocacast/vocacast/internal/config"
	"github.com/vocacast/vocacast/internal/domain"
	"github.com/vocacast/vocacast/internal/llm"
	"github.com/vocacast/vocacast/internal/pipeline"
	"github.com/vocacast/vocacast/internal/script"
	"github.com/vocacast/vocacast/internal/studio"
	ttsgoogle "github.com/vocacast/vocacast/internal/tts/google"

	httpserver "github.com/vocacast/vocacast/internal/transport/http"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/vocacast.local.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("vocacast %s\n", version)
		os.Exit(0)
	}

	// Load .env before config so API keys are visible to viper.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	// Load configuration.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging.
	config.SetupLogging(cfg.Logging)
	slog.Info("vocacast starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize the LLM client.
	llmClient, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		slog.Error("failed to initialize LLM client", "error", err)
		os.Exit(1)
	}
	slog.Info("using OpenAI script writer", "model", cfg.LLM.Model)

	// Build the script writer with configured prompt overrides.
	writer, err := script.NewWriter(llmClient, scriptConfig(cfg.LLM))
	if err != nil {
		slog.Error("failed to initialize script writer", "error", err)
		os.Exit(1)
	}

	// Initialize the TTS backend.
	synth, err := ttsgoogle.New(ttsgoogle.Config{
		APIKey:   cfg.TTS.APIKey,
		Endpoint: cfg.TTS.Endpoint,
	})
	if err != nil {
		slog.Error("failed to initialize TTS client", "error", err)
		os.Exit(1)
	}
	slog.Info("using Google Cloud TTS",
		"interviewer_voice", cfg.TTS.InterviewerVoice,
		"guest_voice", cfg.TTS.GuestVoice)

	// Wire the pipeline: script -> synthesis -> assembly.
	assembler := assemble.New(synth, assemble.Config{
		FFmpegPath: cfg.Assembly.FFmpegPath,
		MaxPauseMs: cfg.Assembly.MaxPauseMs,
	})
	pipe := pipeline.New(writer, assembler)

	st := studio.New(studio.Config{
		RequestTimeout: cfg.Server.RequestTimeout,
		ArtifactTTL:    cfg.Server.ArtifactTTL,
		DefaultVoices: domain.VoiceAssignment{
			InterviewerVoice: cfg.TTS.InterviewerVoice,
			GuestVoice:       cfg.TTS.GuestVoice,
			LanguageCode:     cfg.TTS.LanguageCode,
		},
	}, pipe)

	// Reclaim undownloaded artifacts in the background.
	go st.RunJanitor(ctx)

	// Start the API server.
	server := httpserver.New(httpserver.Config{
		Port:        cfg.Server.Port,
		VocabColumn: cfg.Vocab.Column,
	}, st)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(ctx)
	}()

	server.SetReady(true)
	slog.Info("vocacast ready", "port", cfg.Server.Port)

	// Block until shutdown signal or server failure.
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining...")
	case err := <-errCh:
		if err != nil {
			slog.Error("api server failed", "error", err)
			os.Exit(1)
		}
	}

	if err := server.Close(); err != nil {
		slog.Error("server close error", "error", err)
	}
	slog.Info("vocacast stopped")
}

// scriptConfig merges configured prompt overrides into the default script
// settings.
func scriptConfig(cfg config.LLMConfig) script.Config {
	sc := script.DefaultConfig()

	if cfg.Temperature > 0 {
		sc.Temperature = cfg.Temperature
	}
	if cfg.TopP > 0 {
		sc.TopP = cfg.TopP
	}
	if cfg.UserTemplate != "" {
		sc.UserTemplate = cfg.UserTemplate
	}

	applyStage(&sc.Passage, cfg.Passage)
	applyStage(&sc.Interview, cfg.Interview)
	applyStage(&sc.Dialogue, cfg.Dialogue)
	return sc
}

func applyStage(dst *script.StageConfig, src config.StageConfig) {
	if src.SystemPrompt != "" {
		dst.SystemPrompt = src.SystemPrompt
	}
	if src.MaxTokens > 0 {
		dst.MaxTokens = src.MaxTokens
	}
}

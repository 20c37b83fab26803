// Package script implements the three language-model stages of podcast
// production: a narrative passage from vocabulary, interview Q&A from the
// passage, and a humanized two-speaker dialogue from the Q&A.
//
// Each stage is one completion round-trip. Stage output flows strictly
// forward; only the humanizing stage parses model output structurally.
package script

import (
	"context"
	"fmt"
	"strings"

	"github.com/vocacast/vocacast/internal/llm"
)

// VocabPlaceholder must appear in the passage user template; it is replaced
// with the comma-joined word list.
const VocabPlaceholder = "{vocab}"

// StageConfig holds the prompt and output budget for one generation stage.
type StageConfig struct {
	SystemPrompt string
	MaxTokens    int
}

// Config carries prompts and sampling parameters for all three stages.
type Config struct {
	Passage      StageConfig
	Interview    StageConfig
	Dialogue     StageConfig
	UserTemplate string // passage user prompt, must contain VocabPlaceholder
	Temperature  float64
	TopP         float64
}

// DefaultConfig returns the production prompts and budgets.
func DefaultConfig() Config {
	return Config{
		Passage: StageConfig{
			SystemPrompt: "You are a helpful assistant.",
			MaxTokens:    1024,
		},
		Interview: StageConfig{
			SystemPrompt: "You are a journalist and an expert in creating interviews.",
			MaxTokens:    2048,
		},
		Dialogue: StageConfig{
			SystemPrompt: "You are a scriptwriter and dialogue editor. " +
				"Transform the Q&A into a lively, natural-sounding interview with " +
				"pauses, interruptions, interjections, clarifications, and genuine reactions.",
			MaxTokens: 4096,
		},
		UserTemplate: "Create an interesting text using these words and idioms: {vocab}. " +
			"In your response there must be only generated text with no hellos, " +
			"good-byes or any other comments.",
		Temperature: 0.7,
		TopP:        1.0,
	}
}

// Writer runs the generation stages against an injected llm.Client.
type Writer struct {
	client llm.Client
	cfg    Config
}

// NewWriter builds a Writer; the client is required.
func NewWriter(client llm.Client, cfg Config) (*Writer, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if cfg.UserTemplate == "" || !strings.Contains(cfg.UserTemplate, VocabPlaceholder) {
		return nil, fmt.Errorf("passage user template must contain %s", VocabPlaceholder)
	}
	return &Writer{client: client, cfg: cfg}, nil
}

// Passage turns an ordered word list into one narrative passage. A non-empty
// systemPrompt overrides the configured passage prompt for this call only.
func (w *Writer) Passage(ctx context.Context, vocab []string, systemPrompt string) (string, error) {
	words := make([]string, 0, len(vocab))
	for _, word := range vocab {
		if trimmed := strings.TrimSpace(word); trimmed != "" {
			words = append(words, trimmed)
		}
	}
	if len(words) == 0 {
		return "", fmt.Errorf("vocabulary is empty")
	}

	stage := w.cfg.Passage
	if strings.TrimSpace(systemPrompt) != "" {
		stage.SystemPrompt = systemPrompt
	}

	user := strings.ReplaceAll(w.cfg.UserTemplate, VocabPlaceholder, strings.Join(words, ", "))
	return w.complete(ctx, stage, user)
}

// Interview turns a narrative passage into 5-7 Q&A pairs. The output is
// opaque text; the humanizing stage does the structural extraction.
func (w *Writer) Interview(ctx context.Context, passage string) (string, error) {
	if strings.TrimSpace(passage) == "" {
		return "", fmt.Errorf("passage is empty")
	}

	user := "Here is the text for interview creation:\n\n" +
		passage + "\n\n" +
		"Please create 5-7 interesting questions for a podcast based on the text, " +
		"and write the expert answers.\n" +
		"Format:\nQ: <question>\nA: <answer>\n"
	return w.complete(ctx, w.cfg.Interview, user)
}

// complete performs one completion call and rejects empty output.
func (w *Writer) complete(ctx context.Context, stage StageConfig, user string) (string, error) {
	text, err := w.client.Complete(ctx, llm.Request{
		System:      stage.SystemPrompt,
		User:        user,
		Temperature: w.cfg.Temperature,
		TopP:        w.cfg.TopP,
		MaxTokens:   stage.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("model returned an empty completion")
	}
	return text, nil
}

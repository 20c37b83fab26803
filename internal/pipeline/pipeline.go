// Package pipeline sequences the podcast stages: vocabulary to passage,
// passage to Q&A, Q&A to dialogue, dialogue to per-turn audio, audio to one
// merged artifact.
//
// Stages run strictly in order within one request; data flows forward only.
// Each request owns a private workspace that is released exactly once on
// every exit path. The pipeline never retries a failed stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/vocacast/vocacast/internal/assemble"
	"github.com/vocacast/vocacast/internal/domain"
	"github.com/vocacast/vocacast/internal/script"
)

// Stage names one pipeline phase; failures carry the stage that produced them.
type Stage string

const (
	StageValidating   Stage = "validating"
	StageGenerating   Stage = "generating"
	StageInterviewing Stage = "interviewing"
	StageHumanizing   Stage = "humanizing"
	StageSynthesizing Stage = "synthesizing"
	StageAssembling   Stage = "assembling"
)

// StageError is a stage-aware error. For humanizing failures Raw preserves
// the offending model output for diagnosis.
type StageError struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
	Raw     string `json:"-"`
	Err     error  `json:"-"`
}

// Error formats pipeline failures for logs and status payloads.
func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Request contains the inputs and callbacks for one podcast run.
//
// Exactly one of Vocab, SourceText, or Dialogue drives the entry point:
// a precomputed Dialogue bypasses all generation stages, SourceText bypasses
// passage generation, and Vocab runs the full sequence.
type Request struct {
	Vocab        []string
	SourceText   string
	SystemPrompt string // optional passage prompt override
	Dialogue     domain.Dialogue
	Voices       domain.VoiceAssignment
	OnStage      func(stage Stage)
}

// Result contains the merged artifact, its transcript, and the intermediate
// texts, all backed by the request workspace until Cleanup runs.
type Result struct {
	Passage   string
	QA        string
	Dialogue  domain.Dialogue
	Manifest  *assemble.Manifest
	workspace string
	removeAll func(path string) error
}

// Cleanup removes the request workspace, including the artifact.
func (r *Result) Cleanup() error {
	if r == nil || r.workspace == "" {
		return nil
	}

	if err := r.removeAll(r.workspace); err != nil {
		return err
	}
	r.workspace = ""
	return nil
}

// scriptWriter isolates the generation stages behind an interface.
type scriptWriter interface {
	Passage(ctx context.Context, vocab []string, systemPrompt string) (string, error)
	Interview(ctx context.Context, passage string) (string, error)
	Humanize(ctx context.Context, qa string) (domain.Dialogue, error)
}

// audioAssembler isolates clip synthesis and concatenation.
type audioAssembler interface {
	Assemble(ctx context.Context, dir string, dialogue domain.Dialogue, voices domain.VoiceAssignment) (*assemble.Manifest, error)
}

// Pipeline orchestrates the stages over injected collaborators.
type Pipeline struct {
	writer    scriptWriter
	assembler audioAssembler
	mkdirTemp func(dir, pattern string) (string, error)
	removeAll func(path string) error
}

// New constructs the production pipeline.
func New(writer scriptWriter, assembler audioAssembler) *Pipeline {
	return &Pipeline{
		writer:    writer,
		assembler: assembler,
		mkdirTemp: os.MkdirTemp,
		removeAll: os.RemoveAll,
	}
}

// NewForTests constructs a pipeline with injectable workspace functions.
func NewForTests(
	writer scriptWriter,
	assembler audioAssembler,
	mkdirTemp func(dir, pattern string) (string, error),
	removeAll func(path string) error,
) *Pipeline {
	return &Pipeline{
		writer:    writer,
		assembler: assembler,
		mkdirTemp: mkdirTemp,
		removeAll: removeAll,
	}
}

// Run executes the stage sequence for one request. The first failure aborts
// the remaining stages and releases the workspace before returning.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	emitStage(req.OnStage, StageValidating)
	if err := validate(req); err != nil {
		return Result{}, err
	}

	workspace, err := p.mkdirTemp("", "vocacast-*")
	if err != nil {
		return Result{}, &StageError{
			Stage:   StageValidating,
			Message: "failed to create request workspace",
			Err:     err,
		}
	}

	result := Result{workspace: workspace, removeAll: p.removeAll}

	dialogue := req.Dialogue
	if len(dialogue) == 0 {
		sourceText := req.SourceText
		if strings.TrimSpace(sourceText) == "" {
			emitStage(req.OnStage, StageGenerating)
			sourceText, err = p.writer.Passage(ctx, req.Vocab, req.SystemPrompt)
			if err != nil {
				return Result{}, p.fail(workspace, &StageError{
					Stage:   StageGenerating,
					Message: "narrative generation failed",
					Err:     err,
				})
			}
		}
		result.Passage = sourceText

		emitStage(req.OnStage, StageInterviewing)
		qa, err := p.writer.Interview(ctx, sourceText)
		if err != nil {
			return Result{}, p.fail(workspace, &StageError{
				Stage:   StageInterviewing,
				Message: "interview composition failed",
				Err:     err,
			})
		}
		result.QA = qa

		emitStage(req.OnStage, StageHumanizing)
		dialogue, err = p.writer.Humanize(ctx, qa)
		if err != nil {
			stageErr := &StageError{
				Stage:   StageHumanizing,
				Message: "dialogue humanizing failed",
				Err:     err,
			}
			var parseErr *script.ParseError
			if errors.As(err, &parseErr) {
				stageErr.Raw = parseErr.Raw
			}
			return Result{}, p.fail(workspace, stageErr)
		}
	}
	result.Dialogue = dialogue

	emitStage(req.OnStage, StageSynthesizing)
	manifest, err := p.assembler.Assemble(ctx, workspace, dialogue, req.Voices)
	if err != nil {
		stage := StageAssembling
		message := "audio export failed"
		var synthErr *assemble.SynthesisError
		if errors.As(err, &synthErr) {
			stage = StageSynthesizing
			message = "speech synthesis failed"
		}
		return Result{}, p.fail(workspace, &StageError{
			Stage:   stage,
			Message: message,
			Err:     err,
		})
	}
	result.Manifest = manifest

	return result, nil
}

// fail releases the workspace and passes the stage error through.
func (p *Pipeline) fail(workspace string, stageErr *StageError) *StageError {
	_ = p.removeAll(workspace)
	return stageErr
}

// validate rejects requests with no usable input or incomplete voices.
func validate(req Request) *StageError {
	hasVocab := false
	for _, word := range req.Vocab {
		if strings.TrimSpace(word) != "" {
			hasVocab = true
			break
		}
	}
	if !hasVocab && strings.TrimSpace(req.SourceText) == "" && len(req.Dialogue) == 0 {
		return &StageError{
			Stage:   StageValidating,
			Message: "request needs a vocabulary list, source text, or dialogue",
		}
	}

	if req.Voices.InterviewerVoice == "" || req.Voices.GuestVoice == "" {
		return &StageError{
			Stage:   StageValidating,
			Message: "both interviewer and guest voices are required",
		}
	}
	if req.Voices.LanguageCode == "" {
		return &StageError{
			Stage:   StageValidating,
			Message: "language code is required",
		}
	}
	return nil
}

// emitStage forwards stage updates when a callback is configured.
func emitStage(cb func(stage Stage), stage Stage) {
	if cb != nil {
		cb(stage)
	}
}

// Package studio ties the job registry, event bus, and pipeline together.
//
// Each accepted request becomes a job running in its own goroutine with its
// own workspace; the studio maps pipeline stage callbacks onto job
// transitions and keeps finished artifacts until they are downloaded or the
// retention window elapses.
package studio

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vocacast/vocacast/internal/domain"
	"github.com/vocacast/vocacast/internal/jobs"
	"github.com/vocacast/vocacast/internal/pipeline"
)

// ErrNotReady is returned when an artifact is requested before the job
// reaches ready state.
var ErrNotReady = errors.New("podcast not ready")

// pipelineRunner isolates the podcast pipeline behind an interface.
type pipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Config holds studio behavior knobs.
type Config struct {
	// RequestTimeout bounds one full pipeline run, collaborator calls
	// included.
	RequestTimeout time.Duration

	// ArtifactTTL is how long an undownloaded artifact is retained before
	// the janitor reclaims its workspace.
	ArtifactTTL time.Duration

	// DefaultVoices fill request fields the caller left empty.
	DefaultVoices domain.VoiceAssignment
}

// StartRequest carries one caller's podcast inputs.
type StartRequest struct {
	Vocab        []string
	SourceText   string
	SystemPrompt string
	Dialogue     domain.Dialogue
	Voices       domain.VoiceAssignment
}

// heldResult retains a finished pipeline result until delivery or reclaim.
type heldResult struct {
	result  pipeline.Result
	readyAt time.Time
}

// Studio accepts podcast requests and runs them asynchronously.
type Studio struct {
	cfg      Config
	jobs     *jobs.Manager
	events   *jobs.EventBus
	pipeline pipelineRunner

	mu      sync.Mutex
	results map[string]*heldResult
}

// New builds a studio over the given pipeline.
func New(cfg Config, runner pipelineRunner) *Studio {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Minute
	}
	if cfg.ArtifactTTL <= 0 {
		cfg.ArtifactTTL = 30 * time.Minute
	}

	return &Studio{
		cfg:      cfg,
		jobs:     jobs.NewManager(),
		events:   jobs.NewEventBus(1000),
		pipeline: runner,
		results:  make(map[string]*heldResult),
	}
}

// CreatePodcast registers a job and launches its pipeline run.
func (s *Studio) CreatePodcast(req StartRequest) (domain.Job, error) {
	voices := s.applyVoiceDefaults(req.Voices)

	jobID := uuid.NewString()
	job, err := s.jobs.Register(jobID)
	if err != nil {
		return domain.Job{}, err
	}

	s.publishStatus(jobID, domain.JobStatusReceived, "Request accepted")

	go s.runPodcastJob(jobID, pipeline.Request{
		Vocab:        req.Vocab,
		SourceText:   req.SourceText,
		SystemPrompt: req.SystemPrompt,
		Dialogue:     req.Dialogue,
		Voices:       voices,
	})
	return job, nil
}

// Job returns one job's current snapshot.
func (s *Studio) Job(jobID string) (domain.Job, bool) {
	return s.jobs.Get(jobID)
}

// Events returns one job's events with sequence greater than sinceSeq.
func (s *Studio) Events(jobID string, sinceSeq int64) []jobs.Event {
	return s.events.SinceJob(jobID, sinceSeq)
}

// Transcript returns the dialogue behind a ready artifact.
func (s *Studio) Transcript(jobID string) (domain.Dialogue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	held, ok := s.results[jobID]
	if !ok {
		return nil, ErrNotReady
	}
	return held.result.Dialogue, nil
}

// ArtifactPath returns the merged MP3 path for a ready job.
func (s *Studio) ArtifactPath(jobID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	held, ok := s.results[jobID]
	if !ok {
		return "", ErrNotReady
	}
	return held.result.Manifest.ArtifactPath, nil
}

// MarkDelivered records delivery and releases the job workspace. It must be
// called after the artifact bytes have been sent to the caller.
func (s *Studio) MarkDelivered(jobID string) error {
	s.mu.Lock()
	held, ok := s.results[jobID]
	if ok {
		delete(s.results, jobID)
	}
	s.mu.Unlock()

	if !ok {
		return ErrNotReady
	}

	if err := held.result.Cleanup(); err != nil {
		slog.Warn("workspace cleanup after delivery", "job", jobID, "error", err)
	}

	if err := s.jobs.Transition(jobID, domain.JobStatusDelivered); err == nil {
		s.publishStatus(jobID, domain.JobStatusDelivered, "Artifact delivered, workspace released")
	}
	return nil
}

// RunJanitor reclaims undownloaded artifacts past the retention window.
// It blocks until the context is cancelled.
func (s *Studio) RunJanitor(ctx context.Context) {
	interval := s.cfg.ArtifactTTL / 4
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reclaimExpired(time.Now())
		}
	}
}

// reclaimExpired releases workspaces of artifacts older than the TTL.
func (s *Studio) reclaimExpired(now time.Time) {
	s.mu.Lock()
	var expired []string
	for jobID, held := range s.results {
		if now.Sub(held.readyAt) > s.cfg.ArtifactTTL {
			expired = append(expired, jobID)
		}
	}
	s.mu.Unlock()

	for _, jobID := range expired {
		s.mu.Lock()
		held, ok := s.results[jobID]
		if ok {
			delete(s.results, jobID)
		}
		s.mu.Unlock()
		if !ok {
			continue
		}

		if err := held.result.Cleanup(); err != nil {
			slog.Warn("workspace reclaim", "job", jobID, "error", err)
		}

		// The job snapshot stays registered so polling clients can still
		// read the reclaim event and the final status.
		if err := s.jobs.Fail(jobID, "", "artifact retention window elapsed; workspace reclaimed"); err != nil {
			slog.Warn("record artifact reclaim", "job", jobID, "error", err)
		}
		s.publishEvent(jobs.Event{
			JobID:   jobID,
			Type:    jobs.EventTypeError,
			Status:  domain.JobStatusFailed,
			Message: "Artifact retention window elapsed; workspace reclaimed",
		})
		slog.Info("reclaimed undownloaded artifact", "job", jobID)
	}
}

// runPodcastJob executes the pipeline and maps outcomes to job events.
func (s *Studio) runPodcastJob(jobID string, req pipeline.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	defer cancel()

	req.OnStage = func(stage pipeline.Stage) {
		status, ok := mapStageToStatus(stage)
		if !ok {
			return
		}
		if err := s.jobs.Transition(jobID, status); err == nil {
			s.publishEvent(jobs.Event{
				JobID:   jobID,
				Type:    jobs.EventTypeStatus,
				Status:  status,
				Stage:   string(stage),
				Message: "Running " + string(stage) + " stage",
			})
		}
	}

	result, err := s.pipeline.Run(ctx, req)
	if err != nil {
		stage := ""
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			stage = string(stageErr.Stage)
			if stageErr.Raw != "" {
				slog.Debug("offending model output", "job", jobID, "raw", stageErr.Raw)
			}
		}

		if failErr := s.jobs.Fail(jobID, stage, err.Error()); failErr != nil {
			slog.Warn("record job failure", "job", jobID, "error", failErr)
		}
		s.publishEvent(jobs.Event{
			JobID:   jobID,
			Type:    jobs.EventTypeError,
			Status:  domain.JobStatusFailed,
			Stage:   stage,
			Message: err.Error(),
		})
		slog.Error("podcast job failed", "job", jobID, "stage", stage, "error", err)
		return
	}

	s.mu.Lock()
	s.results[jobID] = &heldResult{result: result, readyAt: time.Now()}
	s.mu.Unlock()

	if err := s.jobs.Transition(jobID, domain.JobStatusReady); err != nil {
		slog.Warn("transition to ready", "job", jobID, "error", err)
	}
	s.publishEvent(jobs.Event{
		JobID:     jobID,
		Type:      jobs.EventTypeResult,
		Status:    domain.JobStatusReady,
		Message:   "Podcast assembled",
		Turns:     len(result.Dialogue),
		Estimated: result.Manifest.Estimated.Round(time.Millisecond).String(),
	})
	slog.Info("podcast job ready", "job", jobID, "turns", len(result.Dialogue))
}

// applyVoiceDefaults fills empty voice fields from configuration.
func (s *Studio) applyVoiceDefaults(voices domain.VoiceAssignment) domain.VoiceAssignment {
	if voices.InterviewerVoice == "" {
		voices.InterviewerVoice = s.cfg.DefaultVoices.InterviewerVoice
	}
	if voices.GuestVoice == "" {
		voices.GuestVoice = s.cfg.DefaultVoices.GuestVoice
	}
	if voices.LanguageCode == "" {
		voices.LanguageCode = s.cfg.DefaultVoices.LanguageCode
	}
	return voices
}

// publishStatus sends a normalized status event.
func (s *Studio) publishStatus(jobID string, status domain.JobStatus, message string) {
	s.publishEvent(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

// publishEvent stores event history for polling clients.
func (s *Studio) publishEvent(event jobs.Event) {
	s.events.Publish(event)
}

// mapStageToStatus maps pipeline stages to job statuses. Assembly reports
// under the synthesizing status; the stage distinction survives in events
// and failure records.
func mapStageToStatus(stage pipeline.Stage) (domain.JobStatus, bool) {
	switch stage {
	case pipeline.StageValidating:
		return domain.JobStatusReceived, true
	case pipeline.StageGenerating:
		return domain.JobStatusGenerating, true
	case pipeline.StageInterviewing:
		return domain.JobStatusInterviewing, true
	case pipeline.StageHumanizing:
		return domain.JobStatusHumanizing, true
	case pipeline.StageSynthesizing, pipeline.StageAssembling:
		return domain.JobStatusSynthesizing, true
	default:
		return "", false
	}
}

// Package jobs tracks podcast request lifecycles and the event history
// callers poll for progress.
package jobs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vocacast/vocacast/internal/domain"
)

// ErrJobNotFound is returned for lookups of unknown job IDs.
var ErrJobNotFound = errors.New("job not found")

// ErrJobExists is returned when registering a duplicate job ID.
var ErrJobExists = errors.New("job already registered")

// Manager tracks every in-flight and recently finished job. Requests run in
// parallel; each job's transitions are validated independently.
type Manager struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
}

// NewManager creates an empty job registry.
func NewManager() *Manager {
	return &Manager{jobs: make(map[string]domain.Job)}
}

// Register creates a new job in received state.
func (m *Manager) Register(jobID string) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[jobID]; ok {
		return domain.Job{}, ErrJobExists
	}

	job := domain.Job{ID: jobID, Status: domain.JobStatusReceived}
	m.jobs[jobID] = job
	return job, nil
}

// Transition validates and applies a forward state change for one job.
// Stage skips are allowed: a request arriving with a precomputed dialogue
// enters synthesis directly.
func (m *Manager) Transition(jobID string, status domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	if status == job.Status {
		return nil
	}
	if !isValidTransition(job.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", job.Status, status)
	}

	job.Status = status
	m.jobs[jobID] = job
	return nil
}

// Fail moves a job to failed state and records the stage and cause.
func (m *Manager) Fail(jobID, stage, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	if job.Status.Terminal() {
		return fmt.Errorf("invalid transition: %s -> %s", job.Status, domain.JobStatusFailed)
	}

	job.Status = domain.JobStatusFailed
	job.FailStage = stage
	job.FailReason = reason
	m.jobs[jobID] = job
	return nil
}

// Get returns a snapshot of one job.
func (m *Manager) Get(jobID string) (domain.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	return job, ok
}

// statusRank orders statuses along the pipeline; transitions only move
// forward.
func statusRank(status domain.JobStatus) (int, bool) {
	switch status {
	case domain.JobStatusReceived:
		return 0, true
	case domain.JobStatusGenerating:
		return 1, true
	case domain.JobStatusInterviewing:
		return 2, true
	case domain.JobStatusHumanizing:
		return 3, true
	case domain.JobStatusSynthesizing:
		return 4, true
	case domain.JobStatusReady:
		return 5, true
	case domain.JobStatusDelivered:
		return 6, true
	default:
		return 0, false
	}
}

// isValidTransition enforces forward-only movement plus failure from any
// non-terminal state.
func isValidTransition(from, to domain.JobStatus) bool {
	if to == domain.JobStatusFailed {
		return !from.Terminal()
	}

	fromRank, ok := statusRank(from)
	if !ok {
		return false
	}
	toRank, ok := statusRank(to)
	if !ok {
		return false
	}
	return toRank > fromRank
}

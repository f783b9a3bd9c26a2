package services

import (
	"sync"
	"time"

	"github.com/Lllllllleong/mediabatchflow/internal/models"
)

// StatusStore holds the single process-wide JobStatus and the last BatchResult.
// Reads always return copies.
type StatusStore struct {
	mu     sync.RWMutex
	status models.JobStatus
	result *models.BatchResult
}

// NewStatusStore returns a store in the idle state.
func NewStatusStore() *StatusStore {
	return &StatusStore{status: models.JobStatus{State: models.StateIdle, Errors: []string{}}}
}

// Get returns a point-in-time copy of the status.
func (s *StatusStore) Get() models.JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.Clone()
}

// Set replaces the status wholesale.
func (s *StatusStore) Set(status models.JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status.Clone()
}

// TryBegin moves the store into processing unless a run already holds it.
// It returns the resulting status and whether the caller now owns the run.
func (s *StatusStore) TryBegin(runID string, now time.Time) (models.JobStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.State == models.StateProcessing {
		return s.status.Clone(), false
	}
	s.status = models.JobStatus{
		State:     models.StateProcessing,
		RunID:     runID,
		StartedAt: now,
		Errors:    []string{},
	}
	return s.status.Clone(), true
}

// Update applies fn to the live status under the write lock.
func (s *StatusStore) Update(fn func(*models.JobStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.status)
}

// Complete stores the result and marks the run completed in one step, so a
// reader never sees a completed state without its result.
func (s *StatusStore) Complete(result *models.BatchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.State = models.StateCompleted
	s.status.CurrentUser = nil
	s.result = result
}

// Fail marks the run failed and records msg.
func (s *StatusStore) Fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.State = models.StateFailed
	s.status.CurrentUser = nil
	s.status.Errors = append(s.status.Errors, msg)
}

// Result returns the last completed BatchResult, if the current state is
// completed.
func (s *StatusStore) Result() (*models.BatchResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status.State != models.StateCompleted || s.result == nil {
		return nil, false
	}
	return s.result, true
}

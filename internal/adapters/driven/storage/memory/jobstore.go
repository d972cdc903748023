package memory

import (
	"context"
	"sync"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driven"
)

// Ensure JobStore implements the interface.
var _ driven.JobStore = (*JobStore)(nil)

// JobStore is an in-memory implementation of driven.JobStore. It
// enforces the same write guards the SQLite store does: monotonic
// progress while processing, single terminal transition, no writes to
// terminal rows.
type JobStore struct {
	mu    sync.RWMutex
	jobs  map[string]domain.Job // keyed by job id
	byDoc map[string][]string   // document id -> job ids in creation order
}

// NewJobStore creates a new in-memory job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs:  make(map[string]domain.Job),
		byDoc: make(map[string][]string),
	}
}

// CreateJob inserts a new job.
func (s *JobStore) CreateJob(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.jobs[job.ID] = *job
	s.byDoc[job.DocumentID] = append(s.byDoc[job.DocumentID], job.ID)
	return nil
}

// UpdateProgress raises progress while the job is processing. Writes
// that would lower progress or touch another state are dropped.
func (s *JobStore) UpdateProgress(_ context.Context, jobID string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status != domain.JobProcessing || progress < job.Progress {
		return nil
	}
	if progress > 100 {
		progress = 100
	}
	job.Progress = progress
	s.jobs[jobID] = job
	return nil
}

// MarkDone transitions a processing job to done with progress 100.
func (s *JobStore) MarkDone(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if !job.Status.CanTransition(domain.JobDone) {
		return domain.ErrIllegalTransition
	}
	job.Status = domain.JobDone
	job.Progress = 100
	s.jobs[jobID] = job
	return nil
}

// MarkFailed transitions a processing job to failed with a cause.
func (s *JobStore) MarkFailed(_ context.Context, jobID string, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if !job.Status.CanTransition(domain.JobFailed) {
		return domain.ErrIllegalTransition
	}
	job.Status = domain.JobFailed
	job.Error = &cause
	s.jobs[jobID] = job
	return nil
}

// LatestJob returns the most recent job for a document.
func (s *JobStore) LatestJob(_ context.Context, documentID string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byDoc[documentID]
	if len(ids) == 0 {
		return nil, domain.ErrNotFound
	}
	latest := s.jobs[ids[len(ids)-1]]
	for _, id := range ids {
		if job := s.jobs[id]; job.CreatedAt.After(latest.CreatedAt) {
			latest = job
		}
	}
	return &latest, nil
}

// Job returns a job by id. Test helper.
func (s *JobStore) Job(jobID string) (domain.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	return job, ok
}

// deleteByDocument removes a document's jobs.
func (s *JobStore) deleteByDocument(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.byDoc[documentID] {
		delete(s.jobs, id)
	}
	delete(s.byDoc, documentID)
}

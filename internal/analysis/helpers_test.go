package analysis

import (
	"context"
	"sync"
	"time"

	"hr-analysis/internal/jobs"
	"hr-analysis/internal/models"
)

// memStore is an in-memory jobs.Store mirroring the forward-only transition
// semantics of the Postgres implementation.
type memStore struct {
	mu   sync.Mutex
	rows map[string]*models.Job
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]*models.Job)}
}

func (s *memStore) snapshot(jobID string) *models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.rows[jobID]; ok {
		copied := *job
		return &copied
	}
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *memStore) Create(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.rows[job.ID] = &copied
	return nil
}

func (s *memStore) Get(ctx context.Context, jobID string) (*models.Job, error) {
	job := s.snapshot(jobID)
	if job == nil {
		return nil, jobs.ErrNotFound
	}
	return job, nil
}

func (s *memStore) ListRecent(ctx context.Context, limit int) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Job, 0, len(s.rows))
	for _, job := range s.rows {
		out = append(out, *job)
	}
	return out, nil
}

func (s *memStore) MarkProcessing(ctx context.Context, jobID string) (*models.Job, error) {
	return s.transition(jobID, models.StatusProcessing, func(job *models.Job) {})
}

func (s *memStore) MarkCompleted(ctx context.Context, jobID string, results *models.AnalysisResults, completedAt time.Time) (*models.Job, error) {
	return s.transition(jobID, models.StatusCompleted, func(job *models.Job) {
		job.Results = results
		job.ErrorMessage = ""
		if job.CompletedAt == nil {
			job.CompletedAt = &completedAt
		}
	})
}

func (s *memStore) MarkFailed(ctx context.Context, jobID string, errorMessage string, completedAt time.Time) (*models.Job, error) {
	return s.transition(jobID, models.StatusFailed, func(job *models.Job) {
		job.Results = nil
		job.ErrorMessage = errorMessage
		if job.CompletedAt == nil {
			job.CompletedAt = &completedAt
		}
	})
}

func (s *memStore) transition(jobID string, next models.JobStatus, apply func(*models.Job)) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.rows[jobID]
	if !ok {
		return nil, jobs.ErrNotFound
	}
	if !job.Status.CanTransitionTo(next) {
		return nil, jobs.ErrInvalidTransition
	}

	job.Status = next
	apply(job)
	copied := *job
	return &copied, nil
}

// recordingPublisher captures published job updates in order.
type recordingPublisher struct {
	mu      sync.Mutex
	updates []models.Job
}

func (p *recordingPublisher) PublishUpdate(ctx context.Context, job *models.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, *job)
	return nil
}

func (p *recordingPublisher) published() []models.Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Job(nil), p.updates...)
}

// stubDispatcher fails or succeeds every dispatch.
type stubDispatcher struct {
	err        error
	dispatched []string
}

func (d *stubDispatcher) Dispatch(ctx context.Context, job *models.Job) error {
	d.dispatched = append(d.dispatched, job.ID)
	return d.err
}

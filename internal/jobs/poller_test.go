package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-analysis/internal/common/logger"
	"hr-analysis/internal/models"
)

// stubStore serves a single mutable job row.
type stubStore struct {
	mu  sync.Mutex
	job *models.Job
}

func (s *stubStore) setStatus(status models.JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job.Status = status
}

func (s *stubStore) Get(ctx context.Context, jobID string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil || s.job.ID != jobID {
		return nil, ErrNotFound
	}
	copied := *s.job
	return &copied, nil
}

func (s *stubStore) Create(context.Context, *models.Job) error { return nil }
func (s *stubStore) ListRecent(context.Context, int) ([]models.Job, error) {
	return nil, nil
}
func (s *stubStore) MarkProcessing(context.Context, string) (*models.Job, error) {
	return nil, ErrNotFound
}
func (s *stubStore) MarkCompleted(context.Context, string, *models.AnalysisResults, time.Time) (*models.Job, error) {
	return nil, ErrNotFound
}
func (s *stubStore) MarkFailed(context.Context, string, string, time.Time) (*models.Job, error) {
	return nil, ErrNotFound
}

func TestPollWatcher_DeliversStatusChanges(t *testing.T) {
	store := &stubStore{job: &models.Job{ID: "job-1", Status: models.StatusProcessing}}
	watcher := NewPollWatcher(store, 10*time.Millisecond, logger.NewTestLogger(t))

	updates := make(chan models.Job, 4)
	unsubscribe, err := watcher.Subscribe(context.Background(), "job-1", func(job models.Job) {
		updates <- job
	})
	require.NoError(t, err)
	defer unsubscribe()

	select {
	case job := <-updates:
		assert.Equal(t, models.StatusProcessing, job.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial status delivered")
	}

	store.setStatus(models.StatusCompleted)

	select {
	case job := <-updates:
		assert.Equal(t, models.StatusCompleted, job.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("terminal status not delivered")
	}
}

func TestPollWatcher_NoDuplicateForUnchangedStatus(t *testing.T) {
	store := &stubStore{job: &models.Job{ID: "job-1", Status: models.StatusProcessing}}
	watcher := NewPollWatcher(store, 10*time.Millisecond, logger.NewTestLogger(t))

	updates := make(chan models.Job, 16)
	unsubscribe, err := watcher.Subscribe(context.Background(), "job-1", func(job models.Job) {
		updates <- job
	})
	require.NoError(t, err)
	defer unsubscribe()

	time.Sleep(100 * time.Millisecond)
	assert.Len(t, updates, 1)
}

func TestPollWatcher_UnsubscribeIsIdempotent(t *testing.T) {
	store := &stubStore{job: &models.Job{ID: "job-1", Status: models.StatusPending}}
	watcher := NewPollWatcher(store, 10*time.Millisecond, logger.NewTestLogger(t))

	unsubscribe, err := watcher.Subscribe(context.Background(), "job-1", func(models.Job) {})
	require.NoError(t, err)

	unsubscribe()
	unsubscribe()
}

func TestPollWatcher_Snapshot(t *testing.T) {
	store := &stubStore{job: &models.Job{ID: "job-1", Status: models.StatusPending}}
	watcher := NewPollWatcher(store, time.Second, logger.NewTestLogger(t))

	job, err := watcher.Snapshot(context.Background(), "job-1")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "job-1", job.ID)

	missing, err := watcher.Snapshot(context.Background(), "other")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// internal/jobs/store.go
package jobs

import (
	"context"
	"errors"
	"time"

	"hr-analysis/internal/models"
)

var (
	// ErrNotFound means no job row matches the given id.
	ErrNotFound = errors.New("JOB_NOT_FOUND")
	// ErrInvalidTransition means the requested status change would move a
	// job backwards. The stored row is left untouched.
	ErrInvalidTransition = errors.New("INVALID_STATUS_TRANSITION")
)

// Store defines persistence operations for analysis jobs. All transitions are
// forward-only; a terminal status is only ever re-applied with identical
// fields, never replaced.
type Store interface {
	// Create inserts the job row. The job must carry a fresh id and
	// pending status.
	Create(ctx context.Context, job *models.Job) error

	// Get returns a point-in-time snapshot, or ErrNotFound.
	Get(ctx context.Context, jobID string) (*models.Job, error)

	// ListRecent returns up to limit jobs, newest first.
	ListRecent(ctx context.Context, limit int) ([]models.Job, error)

	// MarkProcessing moves pending -> processing and returns the updated row.
	MarkProcessing(ctx context.Context, jobID string) (*models.Job, error)

	// MarkCompleted applies the completed terminal state with its results.
	// completedAt is only written the first time; a duplicate call re-applies
	// the same terminal update.
	MarkCompleted(ctx context.Context, jobID string, results *models.AnalysisResults, completedAt time.Time) (*models.Job, error)

	// MarkFailed applies the failed terminal state with its error message.
	MarkFailed(ctx context.Context, jobID string, errorMessage string, completedAt time.Time) (*models.Job, error)
}

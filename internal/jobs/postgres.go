// internal/jobs/postgres.go
package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hr-analysis/internal/common/logger"
	"hr-analysis/internal/models"
)

const jobColumns = `id, hcm_url, company_name, status, input, results, error_message, created_at, completed_at`

// PostgresStore implements Store on top of a single analysis_jobs table.
// Results and input parameters are stored as JSONB, not flattened.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "jobstore"}),
	}
}

// EnsureSchema creates the analysis_jobs table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_jobs (
			id            TEXT PRIMARY KEY,
			hcm_url       TEXT NOT NULL,
			company_name  TEXT,
			status        TEXT NOT NULL,
			input         JSONB NOT NULL DEFAULT '{}',
			results       JSONB,
			error_message TEXT,
			created_at    TIMESTAMPTZ NOT NULL,
			completed_at  TIMESTAMPTZ
		)`)
	if err != nil {
		return fmt.Errorf("ensure analysis_jobs schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, job *models.Job) error {
	inputJSON, err := json.Marshal(job.Input)
	if err != nil {
		return fmt.Errorf("marshal job input: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_jobs (id, hcm_url, company_name, status, input, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		job.ID,
		job.HCMURL,
		nullString(job.CompanyName),
		string(job.Status),
		inputJSON,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}

	s.logger.Info("job created", map[string]interface{}{
		"jobId":  job.ID,
		"hcmUrl": job.HCMURL,
	})
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, jobID string) (*models.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM analysis_jobs
		WHERE id = $1`, jobID)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+jobColumns+`
		FROM analysis_jobs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkProcessing(ctx context.Context, jobID string) (*models.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE analysis_jobs
		SET status = 'processing'
		WHERE id = $1 AND status IN ('pending', 'processing')
		RETURNING `+jobColumns, jobID)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.transitionConflict(ctx, jobID, models.StatusProcessing)
	}
	if err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) MarkCompleted(ctx context.Context, jobID string, results *models.AnalysisResults, completedAt time.Time) (*models.Job, error) {
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}

	// COALESCE keeps the first completed_at on a duplicate terminal update.
	row := s.db.QueryRowContext(ctx, `
		UPDATE analysis_jobs
		SET status = 'completed',
		    results = $2,
		    error_message = NULL,
		    completed_at = COALESCE(completed_at, $3)
		WHERE id = $1 AND status IN ('pending', 'processing', 'completed')
		RETURNING `+jobColumns, jobID, resultsJSON, completedAt)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.transitionConflict(ctx, jobID, models.StatusCompleted)
	}
	if err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}

	s.logger.Info("job completed", map[string]interface{}{"jobId": jobID})
	return job, nil
}

func (s *PostgresStore) MarkFailed(ctx context.Context, jobID string, errorMessage string, completedAt time.Time) (*models.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE analysis_jobs
		SET status = 'failed',
		    results = NULL,
		    error_message = $2,
		    completed_at = COALESCE(completed_at, $3)
		WHERE id = $1 AND status IN ('pending', 'processing', 'failed')
		RETURNING `+jobColumns, jobID, errorMessage, completedAt)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.transitionConflict(ctx, jobID, models.StatusFailed)
	}
	if err != nil {
		return nil, fmt.Errorf("mark failed: %w", err)
	}

	s.logger.Info("job failed", map[string]interface{}{
		"jobId":        jobID,
		"errorMessage": errorMessage,
	})
	return job, nil
}

// transitionConflict distinguishes a missing row from an update that matched
// no row because the stored status forbids the transition.
func (s *PostgresStore) transitionConflict(ctx context.Context, jobID string, wanted models.JobStatus) error {
	var current string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM analysis_jobs WHERE id = $1`, jobID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check job status: %w", err)
	}

	s.logger.Warn("status transition rejected", map[string]interface{}{
		"jobId":   jobID,
		"current": current,
		"wanted":  string(wanted),
	})
	return ErrInvalidTransition
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var (
		job          models.Job
		companyName  sql.NullString
		inputJSON    []byte
		resultsJSON  []byte
		errorMessage sql.NullString
		completedAt  sql.NullTime
	)

	err := row.Scan(
		&job.ID,
		&job.HCMURL,
		&companyName,
		&job.Status,
		&inputJSON,
		&resultsJSON,
		&errorMessage,
		&job.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.CompanyName = companyName.String
	job.ErrorMessage = errorMessage.String
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	if len(inputJSON) > 0 {
		if err := json.Unmarshal(inputJSON, &job.Input); err != nil {
			return nil, fmt.Errorf("unmarshal job input: %w", err)
		}
	}
	if len(resultsJSON) > 0 {
		var results models.AnalysisResults
		if err := json.Unmarshal(resultsJSON, &results); err != nil {
			return nil, fmt.Errorf("unmarshal job results: %w", err)
		}
		job.Results = &results
	}
	return &job, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

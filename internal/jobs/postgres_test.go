package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-analysis/internal/common/logger"
	"hr-analysis/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostgresStore(db, logger.NewTestLogger(t)), mock
}

func jobRow(id string, status models.JobStatus, createdAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "hcm_url", "company_name", "status", "input",
		"results", "error_message", "created_at", "completed_at",
	}).AddRow(
		id, "https://hcm.example.com", "Acme", string(status),
		[]byte(`{"analysisType":"full","frameworks":["bersin","gartner","ulrich"]}`),
		nil, nil, createdAt, nil,
	)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestPostgresStore_Create(t *testing.T) {
	store, mock := newMockStore(t)
	createdAt := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO analysis_jobs`).
		WithArgs("job-1", "https://hcm.example.com", sqlmock.AnyArg(), "pending", sqlmock.AnyArg(), createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Create(context.Background(), &models.Job{
		ID:          "job-1",
		HCMURL:      "https://hcm.example.com",
		CompanyName: "Acme",
		Status:      models.StatusPending,
		Input: models.JobInput{
			AnalysisType: models.AnalysisTypeFull,
			Frameworks:   models.DefaultFrameworks,
		},
		CreatedAt: createdAt,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockStore(t)
	createdAt := time.Now().UTC()

	mock.ExpectQuery(`FROM analysis_jobs\s+WHERE id = \$1`).
		WithArgs("job-1").
		WillReturnRows(jobRow("job-1", models.StatusPending, createdAt))

	job, err := store.Get(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, models.StatusPending, job.Status)
	assert.Equal(t, "Acme", job.CompanyName)
	assert.Equal(t, models.AnalysisTypeFull, job.Input.AnalysisType)
	assert.Nil(t, job.Results)
	assert.Nil(t, job.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM analysis_jobs`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	job, err := store.Get(context.Background(), "missing")

	assert.Nil(t, job)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRecent(t *testing.T) {
	store, mock := newMockStore(t)
	createdAt := time.Now().UTC()

	rows := jobRow("job-2", models.StatusCompleted, createdAt).
		AddRow("job-1", "https://hcm.example.com", "Acme", "pending",
			[]byte(`{}`), nil, nil, createdAt.Add(-time.Minute), nil)

	mock.ExpectQuery(`FROM analysis_jobs\s+ORDER BY created_at DESC\s+LIMIT \$1`).
		WithArgs(5).
		WillReturnRows(rows)

	list, err := store.ListRecent(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "job-2", list[0].ID)
	assert.Equal(t, "job-1", list[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkProcessing(t *testing.T) {
	store, mock := newMockStore(t)
	createdAt := time.Now().UTC()

	mock.ExpectQuery(`UPDATE analysis_jobs\s+SET status = 'processing'`).
		WithArgs("job-1").
		WillReturnRows(jobRow("job-1", models.StatusProcessing, createdAt))

	job, err := store.MarkProcessing(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, job.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkCompleted(t *testing.T) {
	store, mock := newMockStore(t)
	createdAt := time.Now().UTC()
	completedAt := createdAt.Add(time.Minute)

	rows := sqlmock.NewRows([]string{
		"id", "hcm_url", "company_name", "status", "input",
		"results", "error_message", "created_at", "completed_at",
	}).AddRow(
		"job-1", "https://hcm.example.com", "Acme", "completed",
		[]byte(`{}`), []byte(`{"overallScore":68,"totalProcesses":4}`),
		nil, createdAt, completedAt,
	)

	mock.ExpectQuery(`UPDATE analysis_jobs\s+SET status = 'completed'`).
		WithArgs("job-1", sqlmock.AnyArg(), completedAt).
		WillReturnRows(rows)

	job, err := store.MarkCompleted(context.Background(), "job-1",
		&models.AnalysisResults{OverallScore: 68, TotalProcesses: 4}, completedAt)

	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, job.Status)
	require.NotNil(t, job.Results)
	assert.Equal(t, 68, job.Results.OverallScore)
	require.NotNil(t, job.CompletedAt)
	assert.True(t, job.CompletedAt.Equal(completedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkFailed(t *testing.T) {
	store, mock := newMockStore(t)
	createdAt := time.Now().UTC()
	completedAt := createdAt.Add(time.Minute)

	rows := sqlmock.NewRows([]string{
		"id", "hcm_url", "company_name", "status", "input",
		"results", "error_message", "created_at", "completed_at",
	}).AddRow(
		"job-1", "https://hcm.example.com", "Acme", "failed",
		[]byte(`{}`), nil, "processor timeout", createdAt, completedAt,
	)

	mock.ExpectQuery(`UPDATE analysis_jobs\s+SET status = 'failed'`).
		WithArgs("job-1", "processor timeout", completedAt).
		WillReturnRows(rows)

	job, err := store.MarkFailed(context.Background(), "job-1", "processor timeout", completedAt)

	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, job.Status)
	assert.Equal(t, "processor timeout", job.ErrorMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Transition Conflict Tests
// ==========================

func TestPostgresStore_MarkCompleted_AfterFailed(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE analysis_jobs\s+SET status = 'completed'`).
		WithArgs("job-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	mock.ExpectQuery(`SELECT status FROM analysis_jobs WHERE id = \$1`).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("failed"))

	job, err := store.MarkCompleted(context.Background(), "job-1",
		&models.AnalysisResults{}, time.Now())

	assert.Nil(t, job)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkFailed_UnknownJob(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE analysis_jobs\s+SET status = 'failed'`).
		WithArgs("missing", "boom", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	mock.ExpectQuery(`SELECT status FROM analysis_jobs WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	job, err := store.MarkFailed(context.Background(), "missing", "boom", time.Now())

	assert.Nil(t, job)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

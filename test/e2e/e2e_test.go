// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-analysis/internal/analysis"
	"hr-analysis/internal/client"
	"hr-analysis/internal/common/logger"
	"hr-analysis/internal/jobs"
	"hr-analysis/internal/models"
	"hr-analysis/internal/processor"
	"hr-analysis/internal/report"
	"hr-analysis/internal/server"
)

const testSecret = "e2e-secret"

// memStore is an in-memory jobs.Store with the same forward-only transition
// rules as the Postgres store.
type memStore struct {
	mu   sync.Mutex
	rows map[string]*models.Job
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]*models.Job)}
}

func (s *memStore) Create(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.rows[job.ID] = &copied
	return nil
}

func (s *memStore) Get(ctx context.Context, jobID string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.rows[jobID]
	if !ok {
		return nil, jobs.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *memStore) ListRecent(ctx context.Context, limit int) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Job, 0, len(s.rows))
	for _, job := range s.rows {
		out = append(out, *job)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) MarkProcessing(ctx context.Context, jobID string) (*models.Job, error) {
	return s.apply(jobID, models.StatusProcessing, func(*models.Job) {})
}

func (s *memStore) MarkCompleted(ctx context.Context, jobID string, results *models.AnalysisResults, completedAt time.Time) (*models.Job, error) {
	return s.apply(jobID, models.StatusCompleted, func(job *models.Job) {
		job.Results = results
		if job.CompletedAt == nil {
			job.CompletedAt = &completedAt
		}
	})
}

func (s *memStore) MarkFailed(ctx context.Context, jobID string, errorMessage string, completedAt time.Time) (*models.Job, error) {
	return s.apply(jobID, models.StatusFailed, func(job *models.Job) {
		job.ErrorMessage = errorMessage
		if job.CompletedAt == nil {
			job.CompletedAt = &completedAt
		}
	})
}

func (s *memStore) apply(jobID string, next models.JobStatus, mutate func(*models.Job)) (*models.Job, error) {
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
	mutate(job)
	copied := *job
	return &copied, nil
}

// newTestServer wires the full stack, without an external processor, behind
// an httptest server.
func newTestServer(t *testing.T, store jobs.Store, dispatcher analysis.Dispatcher) *httptest.Server {
	log := logger.NewTestLogger(t)

	submission := analysis.NewSubmissionService(store, analysis.NewMockProducer(), dispatcher, jobs.NopPublisher{}, nil, log)
	callback := analysis.NewCallbackReceiver(store, jobs.NopPublisher{}, testSecret, nil, log)
	reports := report.NewService(store, nil, "", log)

	router := server.NewRouter(server.NewHandlers(submission, callback, reports, store, log), log)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestFullLifecycle_InlineResults(t *testing.T) {
	srv := newTestServer(t, newMemStore(), nil)
	log := logger.NewTestLogger(t)

	api := client.NewAPIClient(srv.URL, 5*time.Second, 20*time.Millisecond, log)
	flow := client.NewFlow(api, api, client.Delays{}, log)

	var states []client.State
	flow.OnStateChange = func(s client.State) { states = append(states, s) }
	var results *models.AnalysisResults
	flow.OnComplete = func(r *models.AnalysisResults) { results = r }

	err := flow.Run(context.Background(), &analysis.SubmitRequest{
		HCMURL:      "https://hcm.example.com",
		CompanyName: "Acme",
	})

	require.NoError(t, err)
	assert.Equal(t, []client.State{
		client.StateConnecting,
		client.StateExtracting,
		client.StateAnalyzing,
		client.StateComplete,
	}, states)
	require.NotNil(t, results)
	assert.Equal(t, 68, results.OverallScore)
	assert.Equal(t, 4, results.TotalProcesses)
}

// slowDispatcher accepts the dispatch and lets the test play the processor.
type slowDispatcher struct{}

func (slowDispatcher) Dispatch(ctx context.Context, job *models.Job) error { return nil }

func TestFullLifecycle_ProcessorCallback(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(t, store, slowDispatcher{})
	log := logger.NewTestLogger(t)

	api := client.NewAPIClient(srv.URL, 5*time.Second, 20*time.Millisecond, log)

	resp, err := api.Submit(context.Background(), &analysis.SubmitRequest{
		HCMURL: "https://hcm.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, resp.Status)

	// Play the external processor: deliver the terminal callback over HTTP.
	callbackBody, _ := json.Marshal(map[string]interface{}{
		"job_id":  resp.JobID,
		"success": false,
		"error":   "extraction timed out",
	})
	req, err := httpNewRequest(srv.URL+"/hr-analysis-callback", string(callbackBody), testSecret)
	require.NoError(t, err)
	httpResp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer httpResp.Body.Close()
	assert.Equal(t, 200, httpResp.StatusCode)

	// The client observes the terminal state via polling.
	flowDone := make(chan struct{})
	var terminal models.Job
	unsubscribe, err := api.Subscribe(context.Background(), resp.JobID, func(job models.Job) {
		if job.Status.Terminal() {
			terminal = job
			close(flowDone)
		}
	})
	require.NoError(t, err)
	defer unsubscribe()

	select {
	case <-flowDone:
		assert.Equal(t, models.StatusFailed, terminal.Status)
		assert.Equal(t, "extraction timed out", terminal.ErrorMessage)
	case <-time.After(5 * time.Second):
		t.Fatal("terminal state never observed")
	}
}

func httpNewRequest(url, body, secret string) (*http.Request, error) {
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(processor.SecretHeader, secret)
	return req, nil
}

// internal/client/api.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"hr-analysis/internal/analysis"
	commonhttp "hr-analysis/internal/common/http"
	"hr-analysis/internal/common/logger"
	"hr-analysis/internal/jobs"
	"hr-analysis/internal/models"
)

// APIClient talks to a running analysis server over HTTP. It satisfies both
// Submitter and jobs.Watcher so the flow can run headless against a remote
// server, watching by snapshot polling.
type APIClient struct {
	baseURL      string
	httpClient   *commonhttp.Client
	pollInterval time.Duration
	logger       logger.Logger
}

func NewAPIClient(baseURL string, timeout, pollInterval time.Duration, log logger.Logger) *APIClient {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &APIClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   commonhttp.NewClient(timeout),
		pollInterval: pollInterval,
		logger:       log.WithFields(map[string]interface{}{"component": "apiclient"}),
	}
}

type submitEnvelope struct {
	Success bool                    `json:"success"`
	JobID   string                  `json:"jobId"`
	Status  models.JobStatus        `json:"status"`
	Results *models.AnalysisResults `json:"results"`
	Message string                  `json:"message"`
	Error   string                  `json:"error"`
}

type jobEnvelope struct {
	Success bool        `json:"success"`
	Job     *models.Job `json:"job"`
	Error   string      `json:"error"`
}

// Submit posts one analysis request to the server.
func (c *APIClient) Submit(ctx context.Context, req *analysis.SubmitRequest) (*analysis.SubmitResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal submit request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/hr-analysis", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build submit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("submit analysis: %w", err)
	}
	defer resp.Body.Close()

	var envelope submitEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode submit response: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("submission rejected (%d): %s", resp.StatusCode, envelope.Error)
	}

	return &analysis.SubmitResponse{
		JobID:   envelope.JobID,
		Status:  envelope.Status,
		Results: envelope.Results,
		Message: envelope.Message,
	}, nil
}

// Snapshot fetches the job's current row, or (nil, nil) when the server does
// not know the id.
func (c *APIClient) Snapshot(ctx context.Context, jobID string) (*models.Job, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/hr-analysis/jobs/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("build snapshot request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch job snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	var envelope jobEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode job snapshot: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("snapshot rejected (%d): %s", resp.StatusCode, envelope.Error)
	}
	return envelope.Job, nil
}

// Subscribe polls the snapshot endpoint and delivers status changes, matching
// the notifier contract used in process.
func (c *APIClient) Subscribe(ctx context.Context, jobID string, onUpdate func(models.Job)) (jobs.Unsubscribe, error) {
	stop := make(chan struct{})

	go func() {
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		var lastStatus models.JobStatus
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			job, err := c.Snapshot(ctx, jobID)
			if err != nil {
				c.logger.Warn("snapshot poll failed", map[string]interface{}{
					"jobId": jobID,
					"error": err.Error(),
				})
				continue
			}
			if job == nil {
				continue
			}

			if job.Status != lastStatus {
				lastStatus = job.Status
				onUpdate(*job)
			}
			if job.Status.Terminal() {
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stop) })
	}, nil
}

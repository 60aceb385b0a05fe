// internal/processor/client.go
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"hr-analysis/internal/common/config"
	commonhttp "hr-analysis/internal/common/http"
	"hr-analysis/internal/common/logger"
	"hr-analysis/internal/models"
)

// SecretHeader carries the shared secret on both the outbound dispatch and
// the inbound callback.
const SecretHeader = "X-Processor-Secret"

// DispatchPayload is the wire shape sent to the external workflow processor.
// Field names are part of the contract.
type DispatchPayload struct {
	JobID        string   `json:"job_id"`
	HCMURL       string   `json:"hcm_url"`
	CompanyName  string   `json:"company_name,omitempty"`
	AnalysisType string   `json:"analysis_type"`
	Frameworks   []string `json:"frameworks"`
	CallbackURL  string   `json:"callback_url"`
}

// DispatchError is a non-2xx response from the processor. The body becomes
// the job's error message.
type DispatchError struct {
	StatusCode int
	Body       string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("processor returned %d: %s", e.StatusCode, e.Body)
}

// Client forwards jobs to the external processor webhook. The processor is a
// black box: one POST per job, results arrive later on the callback endpoint.
type Client struct {
	endpoint    string
	secret      string
	callbackURL string
	httpClient  *commonhttp.Client
	logger      logger.Logger
}

func NewClient(cfg config.ProcessorConfig, log logger.Logger) *Client {
	return &Client{
		endpoint:    cfg.WebhookURL,
		secret:      cfg.Secret,
		callbackURL: cfg.CallbackURL,
		httpClient:  commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		logger:      log.WithFields(map[string]interface{}{"component": "processor"}),
	}
}

// Dispatch sends one job to the processor. A non-2xx response is returned as
// *DispatchError; the caller owns marking the job failed.
func (c *Client) Dispatch(ctx context.Context, job *models.Job) error {
	payload := DispatchPayload{
		JobID:        job.ID,
		HCMURL:       job.HCMURL,
		CompanyName:  job.CompanyName,
		AnalysisType: string(job.Input.AnalysisType),
		Frameworks:   job.Input.Frameworks,
		CallbackURL:  c.callbackURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal dispatch payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set(SecretHeader, c.secret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch to processor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		c.logger.Error("processor rejected job", map[string]interface{}{
			"jobId":  job.ID,
			"status": resp.StatusCode,
		})
		return &DispatchError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	c.logger.Info("job dispatched to processor", map[string]interface{}{
		"jobId": job.ID,
	})
	return nil
}

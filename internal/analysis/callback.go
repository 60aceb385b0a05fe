// internal/analysis/callback.go
package analysis

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stderrors "hr-analysis/internal/common/errors"
	"hr-analysis/internal/common/logger"
	"hr-analysis/internal/common/metrics"
	"hr-analysis/internal/common/observability"
	"hr-analysis/internal/jobs"
	"hr-analysis/internal/models"
)

// defaultFailureMessage is recorded when a failure callback carries no error
// text of its own.
const defaultFailureMessage = "unknown error from external processor"

// CallbackPayload is the wire shape the external processor POSTs back when a
// dispatched job finishes.
type CallbackPayload struct {
	JobID   string          `json:"job_id"`
	Success bool            `json:"success"`
	Results json.RawMessage `json:"results,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// CallbackReceiver applies processor callbacks to the job store. Each
// accepted callback moves exactly one job to a terminal state; replays of the
// same terminal outcome are acknowledged without changing the row.
type CallbackReceiver struct {
	store     jobs.Store
	publisher jobs.Publisher
	secret    string
	obs       *observability.Observability
	logger    logger.Logger
	now       func() time.Time
}

func NewCallbackReceiver(store jobs.Store, publisher jobs.Publisher, secret string, obs *observability.Observability, log logger.Logger) *CallbackReceiver {
	return &CallbackReceiver{
		store:     store,
		publisher: publisher,
		secret:    secret,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "callback"}),
		now:       time.Now,
	}
}

// Receive authenticates and applies one callback. providedSecret is the value
// of the secret header exactly as received. The check only applies when a
// shared secret is configured; otherwise any header value is accepted.
func (r *CallbackReceiver) Receive(ctx context.Context, payload *CallbackPayload, providedSecret string) error {
	if r.secret != "" && subtle.ConstantTimeCompare([]byte(providedSecret), []byte(r.secret)) != 1 {
		metrics.CallbacksReceived.WithLabelValues("rejected").Inc()
		r.logger.Warn("callback rejected: secret mismatch", map[string]interface{}{
			"jobId": payload.JobID,
		})
		return stderrors.NewUnauthorizedError()
	}

	if payload.JobID == "" {
		metrics.CallbacksReceived.WithLabelValues("rejected").Inc()
		return stderrors.NewValidationError("job_id is required")
	}

	if payload.Success {
		return r.applyCompleted(ctx, payload)
	}
	return r.applyFailed(ctx, payload)
}

func (r *CallbackReceiver) applyCompleted(ctx context.Context, payload *CallbackPayload) error {
	if len(payload.Results) == 0 {
		metrics.CallbacksReceived.WithLabelValues("rejected").Inc()
		return stderrors.NewValidationError("results are required for a success callback")
	}
	if err := validateResultsPayload(payload.Results); err != nil {
		metrics.CallbacksReceived.WithLabelValues("rejected").Inc()
		return stderrors.NewValidationError(err.Error())
	}

	var results models.AnalysisResults
	if err := json.Unmarshal(payload.Results, &results); err != nil {
		metrics.CallbacksReceived.WithLabelValues("rejected").Inc()
		return stderrors.NewValidationError(fmt.Sprintf("results decode failed: %v", err))
	}

	job, err := r.store.MarkCompleted(ctx, payload.JobID, &results, r.now().UTC())
	if err != nil {
		return r.transitionError(payload.JobID, "completed", err)
	}

	r.publish(ctx, job)
	metrics.CallbacksReceived.WithLabelValues("success").Inc()
	metrics.JobsCompleted.Inc()
	r.recordProcessed(ctx, "completed")
	r.logger.Info("callback completed job", map[string]interface{}{
		"jobId":        job.ID,
		"overallScore": results.OverallScore,
	})
	return nil
}

func (r *CallbackReceiver) applyFailed(ctx context.Context, payload *CallbackPayload) error {
	errorMessage := payload.Error
	if errorMessage == "" {
		errorMessage = defaultFailureMessage
	}

	job, err := r.store.MarkFailed(ctx, payload.JobID, errorMessage, r.now().UTC())
	if err != nil {
		return r.transitionError(payload.JobID, "failed", err)
	}

	r.publish(ctx, job)
	metrics.CallbacksReceived.WithLabelValues("failure").Inc()
	metrics.JobsFailed.WithLabelValues("processor").Inc()
	r.recordProcessed(ctx, "failed")
	r.logger.Info("callback failed job", map[string]interface{}{
		"jobId": job.ID,
		"error": errorMessage,
	})
	return nil
}

// transitionError maps store errors to the caller-facing taxonomy. A callback
// that conflicts with an already-settled opposite outcome is logged and
// acknowledged; the first terminal state wins.
func (r *CallbackReceiver) transitionError(jobID, target string, err error) error {
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		metrics.CallbacksReceived.WithLabelValues("rejected").Inc()
		return stderrors.NewJobNotFoundError(jobID)
	case errors.Is(err, jobs.ErrInvalidTransition):
		r.logger.Warn("callback ignored: job already settled", map[string]interface{}{
			"jobId":  jobID,
			"target": target,
		})
		return nil
	default:
		return stderrors.NewStoreFailureError(err)
	}
}

func (r *CallbackReceiver) publish(ctx context.Context, job *models.Job) {
	if job == nil {
		return
	}
	if err := r.publisher.PublishUpdate(ctx, job); err != nil {
		r.logger.Warn("job update publish failed", map[string]interface{}{
			"jobId": job.ID,
			"error": err.Error(),
		})
	}
}

func (r *CallbackReceiver) recordProcessed(ctx context.Context, status string) {
	if r.obs != nil {
		r.obs.RecordJobProcessed(ctx, status)
	}
}

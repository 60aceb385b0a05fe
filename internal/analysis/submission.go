// internal/analysis/submission.go
package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	stderrors "hr-analysis/internal/common/errors"
	"hr-analysis/internal/common/logger"
	"hr-analysis/internal/common/metrics"
	"hr-analysis/internal/common/observability"
	"hr-analysis/internal/jobs"
	"hr-analysis/internal/models"
	"hr-analysis/internal/processor"
)

// Dispatcher forwards a job to the external processor. *processor.Client is
// the production implementation.
type Dispatcher interface {
	Dispatch(ctx context.Context, job *models.Job) error
}

// SubmitRequest is a validated-on-entry analysis request.
type SubmitRequest struct {
	HCMURL       string              `json:"hcmUrl"`
	CompanyName  string              `json:"companyName,omitempty"`
	AnalysisType models.AnalysisType `json:"analysisType,omitempty"`
	Frameworks   []string            `json:"frameworks,omitempty"`
}

// SubmitResponse reports the outcome of one submission. Results are inline
// only when the job completed within the call.
type SubmitResponse struct {
	JobID   string                  `json:"jobId"`
	Status  models.JobStatus        `json:"status"`
	Results *models.AnalysisResults `json:"results,omitempty"`
	Message string                  `json:"message,omitempty"`
}

// SubmissionService validates a request, creates the job row, and either
// completes it inline with synthesized results or hands it to the external
// processor. Exactly one row is created per call and at most one outbound
// dispatch is made.
type SubmissionService struct {
	store      jobs.Store
	producer   ResultProducer
	dispatcher Dispatcher // nil when no processor endpoint is configured
	publisher  jobs.Publisher
	obs        *observability.Observability
	logger     logger.Logger
	now        func() time.Time
}

func NewSubmissionService(store jobs.Store, producer ResultProducer, dispatcher Dispatcher, publisher jobs.Publisher, obs *observability.Observability, log logger.Logger) *SubmissionService {
	return &SubmissionService{
		store:      store,
		producer:   producer,
		dispatcher: dispatcher,
		publisher:  publisher,
		obs:        obs,
		logger:     log.WithFields(map[string]interface{}{"component": "submission"}),
		now:        time.Now,
	}
}

func (s *SubmissionService) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error) {
	started := s.now()
	defer func() {
		metrics.SubmissionDuration.Observe(time.Since(started).Seconds())
	}()

	// Validation happens before any persistence.
	if strings.TrimSpace(req.HCMURL) == "" {
		return nil, stderrors.NewValidationError("HCM URL is required")
	}
	if req.AnalysisType == "" {
		req.AnalysisType = models.AnalysisTypeFull
	}
	if len(req.Frameworks) == 0 {
		req.Frameworks = append([]string(nil), models.DefaultFrameworks...)
	}

	job := &models.Job{
		ID:          uuid.New().String(),
		HCMURL:      req.HCMURL,
		CompanyName: req.CompanyName,
		Status:      models.StatusPending,
		Input: models.JobInput{
			AnalysisType: req.AnalysisType,
			Frameworks:   req.Frameworks,
		},
		CreatedAt: s.now().UTC(),
	}

	if err := s.store.Create(ctx, job); err != nil {
		return nil, stderrors.NewStoreFailureError(err)
	}

	s.logger.Info("analysis job submitted", map[string]interface{}{
		"jobId":  job.ID,
		"hcmUrl": job.HCMURL,
	})

	if s.dispatcher == nil {
		return s.completeInline(ctx, job, req)
	}
	return s.forward(ctx, job)
}

// completeInline synthesizes results and applies the pending -> completed
// transition within the submission call.
func (s *SubmissionService) completeInline(ctx context.Context, job *models.Job, req *SubmitRequest) (*SubmitResponse, error) {
	metrics.JobsSubmitted.WithLabelValues("mock").Inc()

	results := s.producer.Produce(req)
	updated, err := s.store.MarkCompleted(ctx, job.ID, results, s.now().UTC())
	if err != nil {
		return nil, stderrors.NewStoreFailureError(err)
	}
	s.publish(ctx, updated)
	s.recordProcessed(ctx, "completed")
	metrics.JobsCompleted.Inc()

	return &SubmitResponse{
		JobID:   updated.ID,
		Status:  models.StatusCompleted,
		Results: updated.Results,
	}, nil
}

// forward dispatches the job to the external processor. A rejected dispatch
// marks the job failed before the error surfaces, so a subscriber still
// observes the terminal state even if this call's response is lost.
func (s *SubmissionService) forward(ctx context.Context, job *models.Job) (*SubmitResponse, error) {
	metrics.JobsSubmitted.WithLabelValues("processor").Inc()

	if err := s.dispatcher.Dispatch(ctx, job); err != nil {
		errorMessage := err.Error()
		var dispatchErr *processor.DispatchError
		if errors.As(err, &dispatchErr) {
			errorMessage = dispatchErr.Body
		}

		failed, markErr := s.store.MarkFailed(ctx, job.ID, errorMessage, s.now().UTC())
		if markErr != nil {
			s.logger.Error("could not mark dispatched job failed", map[string]interface{}{
				"jobId": job.ID,
				"error": markErr.Error(),
			})
		} else {
			s.publish(ctx, failed)
		}
		s.recordProcessed(ctx, "failed")
		metrics.JobsFailed.WithLabelValues("dispatch").Inc()
		return nil, stderrors.NewExternalProcessorError(errorMessage)
	}

	updated, err := s.store.MarkProcessing(ctx, job.ID)
	if err != nil {
		return nil, stderrors.NewStoreFailureError(err)
	}
	s.publish(ctx, updated)

	return &SubmitResponse{
		JobID:   updated.ID,
		Status:  models.StatusProcessing,
		Message: "Analysis started. Results will be available shortly.",
	}, nil
}

func (s *SubmissionService) publish(ctx context.Context, job *models.Job) {
	if job == nil {
		return
	}
	if err := s.publisher.PublishUpdate(ctx, job); err != nil {
		s.logger.Warn("job update publish failed", map[string]interface{}{
			"jobId": job.ID,
			"error": err.Error(),
		})
	}
}

func (s *SubmissionService) recordProcessed(ctx context.Context, status string) {
	if s.obs != nil {
		s.obs.RecordJobProcessed(ctx, status)
	}
}

// internal/server/handlers.go
package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hr-analysis/internal/analysis"
	stderrors "hr-analysis/internal/common/errors"
	"hr-analysis/internal/common/logger"
	"hr-analysis/internal/jobs"
	"hr-analysis/internal/processor"
	"hr-analysis/internal/report"
)

const defaultRecentLimit = 10

// Handlers binds the analysis services to their HTTP routes.
type Handlers struct {
	submission *analysis.SubmissionService
	callback   *analysis.CallbackReceiver
	reports    *report.Service
	store      jobs.Store
	logger     logger.Logger
}

func NewHandlers(submission *analysis.SubmissionService, callback *analysis.CallbackReceiver, reports *report.Service, store jobs.Store, log logger.Logger) *Handlers {
	return &Handlers{
		submission: submission,
		callback:   callback,
		reports:    reports,
		store:      store,
		logger:     log.WithFields(map[string]interface{}{"component": "http"}),
	}
}

func (h *Handlers) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.POST("/hr-analysis", h.Submit)
	r.POST("/hr-analysis-callback", h.Callback)
	r.GET("/hr-analysis/jobs", h.ListRecentJobs)
	r.GET("/hr-analysis/jobs/:id", h.GetJob)
	r.POST("/hr-analysis/report", h.SendReport)
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Submit accepts an analysis request and returns either inline results or the
// id of a job now processing externally.
func (h *Handlers) Submit(c *gin.Context) {
	var req analysis.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, stderrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	resp, err := h.submission.Submit(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	body := gin.H{
		"success": true,
		"jobId":   resp.JobID,
		"status":  resp.Status,
	}
	if resp.Results != nil {
		body["results"] = resp.Results
	}
	if resp.Message != "" {
		body["message"] = resp.Message
	}
	c.JSON(http.StatusOK, body)
}

// Callback receives the external processor's terminal outcome for a job. The
// shared secret rides on the request header.
func (h *Handlers) Callback(c *gin.Context) {
	var payload analysis.CallbackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.fail(c, stderrors.NewValidationError("invalid callback body: "+err.Error()))
		return
	}

	secret := c.GetHeader(processor.SecretHeader)
	if err := h.callback.Receive(c.Request.Context(), &payload, secret); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Callback processed"})
}

// ListRecentJobs returns the most recent jobs, newest first.
func (h *Handlers) ListRecentJobs(c *gin.Context) {
	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.fail(c, stderrors.NewValidationError("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	list, err := h.store.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, stderrors.NewStoreFailureError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "jobs": list})
}

// GetJob returns one job's current snapshot, including results when terminal.
func (h *Handlers) GetJob(c *gin.Context) {
	jobID := c.Param("id")

	job, err := h.store.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			h.fail(c, stderrors.NewJobNotFoundError(jobID))
			return
		}
		h.fail(c, stderrors.NewStoreFailureError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "job": job})
}

// SendReport emails an executive report for a completed job.
func (h *Handlers) SendReport(c *gin.Context) {
	var req report.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, stderrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	message, err := h.reports.Send(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// fail writes the error-shape response for the taxonomy-mapped status code.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := stderrors.HTTPStatus(err)

	message := err.Error()
	var stdErr *stderrors.StandardError
	if errors.As(err, &stdErr) {
		message = stdErr.Message
		if stdErr.Code == stderrors.ErrCodeExternalProcessorFailed && stdErr.Details != "" {
			message = stdErr.Message + ": " + stdErr.Details
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).Error("request failed", map[string]interface{}{
			"path": c.Request.URL.Path,
		})
	}

	c.JSON(status, gin.H{"success": false, "error": message})
}

// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_jobs_submitted_total",
			Help: "Total number of analysis jobs submitted",
		},
		[]string{"mode"}, // mock | processor
	)

	JobsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_jobs_completed_total",
			Help: "Total number of analysis jobs that reached completed",
		},
	)

	JobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_jobs_failed_total",
			Help: "Total number of analysis jobs that reached failed",
		},
		[]string{"reason"},
	)

	CallbacksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_callbacks_received_total",
			Help: "Total number of processor callbacks received",
		},
		[]string{"outcome"}, // success | failure | rejected
	)

	SubmissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "analysis_submission_duration_seconds",
			Help: "Duration of submission handling in seconds",
		},
	)
)

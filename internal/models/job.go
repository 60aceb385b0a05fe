// internal/models/job.go
package models

import "time"

// JobStatus is the lifecycle state of an analysis job. Transitions are
// monotonic: pending -> {processing -> {completed|failed}} | completed | failed.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are permitted.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next preserves
// monotonicity. Re-applying the same terminal state is allowed so a duplicate
// callback stays idempotent.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s == next {
		return s != StatusPending
	}
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCompleted || next == StatusFailed
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// AnalysisType selects the depth of an analysis run.
type AnalysisType string

const (
	AnalysisTypeFull  AnalysisType = "full"
	AnalysisTypeQuick AnalysisType = "quick"
)

// DefaultFrameworks is the framework set applied when a request names none.
var DefaultFrameworks = []string{"bersin", "gartner", "ulrich"}

// JobInput captures the request parameters persisted alongside a job.
type JobInput struct {
	AnalysisType AnalysisType `json:"analysisType"`
	Frameworks   []string     `json:"frameworks"`
}

// Job is one analysis request's persisted lifecycle record. The store owns
// these rows exclusively; results are embedded and have no independent
// identity.
type Job struct {
	ID           string           `json:"id"`
	HCMURL       string           `json:"hcmUrl"`
	CompanyName  string           `json:"companyName,omitempty"`
	Status       JobStatus        `json:"status"`
	Input        JobInput         `json:"input"`
	Results      *AnalysisResults `json:"results,omitempty"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	CompletedAt  *time.Time       `json:"completedAt,omitempty"`
}

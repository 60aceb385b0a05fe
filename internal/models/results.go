// internal/models/results.go
package models

import "math"

// AlignmentStatus is the three-way classification shared by processes and
// framework scores.
type AlignmentStatus string

const (
	AlignmentAligned    AlignmentStatus = "aligned"
	AlignmentPartial    AlignmentStatus = "partial"
	AlignmentMisaligned AlignmentStatus = "misaligned"
)

// ClassifyScore maps a 0-100 score to its alignment status.
// Thresholds: >=75 aligned, >=50 partial, <50 misaligned.
func ClassifyScore(score int) AlignmentStatus {
	switch {
	case score >= 75:
		return AlignmentAligned
	case score >= 50:
		return AlignmentPartial
	default:
		return AlignmentMisaligned
	}
}

// RoundHalfUp is the single rounding rule applied to averaged scores.
// 67.5 rounds to 68, matching the behavior observed in the reference data.
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// MeanScore averages the given scores and rounds with RoundHalfUp.
func MeanScore(scores ...int) int {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return RoundHalfUp(float64(sum) / float64(len(scores)))
}

// FrameworkScore is one framework's evaluation of one process.
type FrameworkScore struct {
	Name            string          `json:"name"`
	Score           int             `json:"score"`
	MaxScore        int             `json:"maxScore"`
	Status          AlignmentStatus `json:"status"`
	Description     string          `json:"description"`
	Recommendations []string        `json:"recommendations"`
}

// ProcessLog is one audit entry for a process analysis, most recent first.
type ProcessLog struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	ProcessType string `json:"processType"`
	Action      string `json:"action"`
	Status      string `json:"status"`
	Details     string `json:"details"`
}

// ProcessAnalysis is one HR process's evaluation against all frameworks.
type ProcessAnalysis struct {
	ProcessName  string                    `json:"processName"`
	Status       AlignmentStatus           `json:"status"`
	OverallScore int                       `json:"overallScore"`
	Frameworks   map[string]FrameworkScore `json:"frameworks"`
	Logs         []ProcessLog              `json:"logs"`
}

// Priority ranks a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Effort buckets a recommendation's implementation cost.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// DisplayLabel maps an effort bucket to its fixed display label.
func (e Effort) DisplayLabel() string {
	switch e {
	case EffortLow:
		return "1-2 weeks"
	case EffortMedium:
		return "1-2 months"
	case EffortHigh:
		return "3-6 months"
	default:
		return string(e)
	}
}

// Recommendation is one actionable finding, attributed to its originating
// framework.
type Recommendation struct {
	Priority    Priority `json:"priority"`
	Framework   string   `json:"framework"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Impact      string   `json:"impact"`
	Effort      Effort   `json:"effort"`
}

// AnalysisResults is the immutable snapshot report attached to a completed
// job.
type AnalysisResults struct {
	OverallScore       int               `json:"overallScore"`
	TotalProcesses     int               `json:"totalProcesses"`
	AlignedCount       int               `json:"alignedCount"`
	PartialCount       int               `json:"partialCount"`
	MisalignedCount    int               `json:"misalignedCount"`
	Processes          []ProcessAnalysis `json:"processes"`
	TopRecommendations []Recommendation  `json:"topRecommendations"`
	ExecutiveSummary   string            `json:"executiveSummary"`
	AnalyzedAt         string            `json:"analyzedAt,omitempty"`
}

// ComputeAggregates fills OverallScore, TotalProcesses and the three status
// counts from the process list. The overall score is the rounded mean of the
// per-process rounded means.
func (r *AnalysisResults) ComputeAggregates() {
	r.TotalProcesses = len(r.Processes)
	r.AlignedCount = 0
	r.PartialCount = 0
	r.MisalignedCount = 0

	sum := 0.0
	for _, p := range r.Processes {
		sum += float64(p.OverallScore)
		switch p.Status {
		case AlignmentAligned:
			r.AlignedCount++
		case AlignmentPartial:
			r.PartialCount++
		case AlignmentMisaligned:
			r.MisalignedCount++
		}
	}

	if r.TotalProcesses > 0 {
		r.OverallScore = RoundHalfUp(sum / float64(r.TotalProcesses))
	} else {
		r.OverallScore = 0
	}
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyScore(t *testing.T) {
	tests := []struct {
		score    int
		expected AlignmentStatus
	}{
		{100, AlignmentAligned},
		{75, AlignmentAligned},
		{74, AlignmentPartial},
		{50, AlignmentPartial},
		{49, AlignmentMisaligned},
		{0, AlignmentMisaligned},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClassifyScore(tt.score), "score %d", tt.score)
	}
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 68, RoundHalfUp(67.5))
	assert.Equal(t, 67, RoundHalfUp(67.4))
	assert.Equal(t, 68, RoundHalfUp(67.6))
	assert.Equal(t, 0, RoundHalfUp(0))
	assert.Equal(t, 1, RoundHalfUp(0.5))
}

func TestMeanScore(t *testing.T) {
	assert.Equal(t, 72, MeanScore(68, 75, 73))
	assert.Equal(t, 45, MeanScore(42, 48, 45))
	assert.Equal(t, 88, MeanScore(90, 85, 89))
	assert.Equal(t, 65, MeanScore(60, 70, 65))
	assert.Equal(t, 0, MeanScore())
}

func TestEffort_DisplayLabel(t *testing.T) {
	assert.Equal(t, "1-2 weeks", EffortLow.DisplayLabel())
	assert.Equal(t, "1-2 months", EffortMedium.DisplayLabel())
	assert.Equal(t, "3-6 months", EffortHigh.DisplayLabel())
	assert.Equal(t, "unknown", Effort("unknown").DisplayLabel())
}

func TestAnalysisResults_ComputeAggregates(t *testing.T) {
	results := &AnalysisResults{
		Processes: []ProcessAnalysis{
			{ProcessName: "Hire Employee", Status: AlignmentPartial, OverallScore: 72},
			{ProcessName: "Performance Review", Status: AlignmentMisaligned, OverallScore: 45},
			{ProcessName: "Learning & Development", Status: AlignmentAligned, OverallScore: 88},
			{ProcessName: "Compensation Management", Status: AlignmentPartial, OverallScore: 65},
		},
	}

	results.ComputeAggregates()

	// (72+45+88+65)/4 = 67.5, rounded half-up
	assert.Equal(t, 68, results.OverallScore)
	assert.Equal(t, 4, results.TotalProcesses)
	assert.Equal(t, 1, results.AlignedCount)
	assert.Equal(t, 2, results.PartialCount)
	assert.Equal(t, 1, results.MisalignedCount)
	assert.Equal(t, results.TotalProcesses,
		results.AlignedCount+results.PartialCount+results.MisalignedCount)
}

func TestAnalysisResults_ComputeAggregates_Empty(t *testing.T) {
	results := &AnalysisResults{}
	results.ComputeAggregates()

	assert.Equal(t, 0, results.OverallScore)
	assert.Equal(t, 0, results.TotalProcesses)
}

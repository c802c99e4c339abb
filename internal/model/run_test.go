package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		step StepName
		want float64
	}{
		{StepDetecting, 12.5},
		{StepEstimatingMetals, 50},
		{StepGeneratingReport, 87.5},
		{StepDone, 100},
		{StepNotStarted, 0},
		{StepName("BOGUS"), 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.step), func(t *testing.T) {
			t.Parallel()
			run := &PipelineRun{CurrentStep: tt.step}
			assert.InDelta(t, tt.want, run.Progress(), 0.001)
		})
	}
}

func TestStepOrder(t *testing.T) {
	t.Parallel()

	assert.Len(t, StepOrder, 8)
	assert.Equal(t, StepDetecting, StepOrder[0])
	assert.Equal(t, StepDone, StepOrder[len(StepOrder)-1])
}

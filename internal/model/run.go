package model

import "time"

// StepName identifies a pipeline step. The order is fixed; there is no
// branching and no skipping.
type StepName string

const (
	StepDetecting            StepName = "DETECTING"
	StepParsingTextInventory StepName = "PARSING_TEXT_INVENTORY"
	StepNormalizingInventory StepName = "NORMALIZING_INVENTORY"
	StepEstimatingMetals     StepName = "ESTIMATING_METALS"
	StepPricingMetals        StepName = "PRICING_METALS"
	StepPlanningExtraction   StepName = "PLANNING_EXTRACTION"
	StepGeneratingReport     StepName = "GENERATING_REPORT"
	StepDone                 StepName = "DONE"

	// StepNotStarted is reported for batches with no pipeline run yet.
	StepNotStarted StepName = "NOT_STARTED"
)

// StepOrder is the canonical execution order of the pipeline.
var StepOrder = []StepName{
	StepDetecting,
	StepParsingTextInventory,
	StepNormalizingInventory,
	StepEstimatingMetals,
	StepPricingMetals,
	StepPlanningExtraction,
	StepGeneratingReport,
	StepDone,
}

// StepStatus is the state of a single step, and of the run as a whole
// (a run carries the status of its most recently touched step).
type StepStatus string

const (
	StatusPending    StepStatus = "pending"
	StatusInProgress StepStatus = "in_progress"
	StatusCompleted  StepStatus = "completed"
	StatusFailed     StepStatus = "failed"
)

// StepResult records one step's outcome inside a run.
type StepResult struct {
	Status    StepStatus `json:"status"`
	Output    any        `json:"output,omitempty"`
	Error     string     `json:"error,omitempty"`
	Duration  int64      `json:"duration,omitempty"` // milliseconds
	Timestamp time.Time  `json:"timestamp"`
}

// PipelineRun is one attempt at running the full pipeline over a batch.
type PipelineRun struct {
	ID            string                  `json:"id"`
	BatchID       string                  `json:"batchId"`
	CurrentStep   StepName                `json:"currentStep"`
	Status        StepStatus              `json:"status"`
	StepResults   map[StepName]StepResult `json:"stepResults,omitempty"`
	ModelVersions map[string]string       `json:"modelVersions,omitempty"`
	CreatedAt     time.Time               `json:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt"`
}

// Progress returns the run's completion percentage based on the current
// step's position in StepOrder. Unknown steps report 0.
func (r *PipelineRun) Progress() float64 {
	for i, s := range StepOrder {
		if s == r.CurrentStep {
			return float64(i+1) / float64(len(StepOrder)) * 100
		}
	}
	return 0
}

// PipelineStatus is the externally visible state of a batch's latest run.
type PipelineStatus struct {
	BatchID     string                  `json:"batchId"`
	RunID       string                  `json:"runId,omitempty"`
	CurrentStep StepName                `json:"currentStep"`
	Status      StepStatus              `json:"status"`
	StepResults map[StepName]StepResult `json:"stepResults,omitempty"`
	Progress    float64                 `json:"progress"`
}

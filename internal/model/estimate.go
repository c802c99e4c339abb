package model

import "time"

// Citation points at the source behind a generated factual claim.
type Citation struct {
	Source     string     `json:"source,omitempty"`
	URL        string     `json:"url,omitempty"`
	Title      string     `json:"title,omitempty"`
	Date       string     `json:"date,omitempty"`
	Confidence Confidence `json:"confidence,omitempty"`
}

// MetalComposition is the estimated recoverable mass of one metal within
// one item type.
type MetalComposition struct {
	Grams      float64    `json:"grams"`
	Confidence Confidence `json:"confidence"`
}

// MetalEstimate is the generated per-batch metal composition. At most one
// exists per batch; regeneration overwrites it.
type MetalEstimate struct {
	Composition       map[string]MetalComposition `json:"composition"`
	AggregateTotalsKg map[string]float64          `json:"aggregateTotalsKg"`
	Uncertainty       map[string]Confidence       `json:"uncertainty"`
	Citations         []Citation                  `json:"citations"`

	BatchID    string    `json:"batchId,omitempty"`
	PromptHash string    `json:"promptHash,omitempty"`
	ModelUsed  string    `json:"modelUsed,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

// PriceSnapshot is the generated market valuation of a batch's metals.
// Singleton per batch, like MetalEstimate.
type PriceSnapshot struct {
	TimestampUTC       string             `json:"timestampUtc"`
	Currency           string             `json:"currency"`
	PricesPerKg        map[string]float64 `json:"pricesPerKg"`
	TotalGrossValueUSD float64            `json:"totalGrossValueUsd"`
	Sources            []Citation         `json:"sources"`

	BatchID    string    `json:"batchId,omitempty"`
	PromptHash string    `json:"promptHash,omitempty"`
	ModelUsed  string    `json:"modelUsed,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

// RecommendedProcess is one suggested recovery process for a metal type.
type RecommendedProcess struct {
	MetalType string  `json:"metalType"`
	Process   string  `json:"process"`
	Duration  string  `json:"duration"`
	Yield     float64 `json:"yield"` // percent, 0-100
}

// TimelinePhase is one phase of the extraction timeline.
type TimelinePhase struct {
	Name       string   `json:"name"`
	Duration   string   `json:"duration"`
	Activities []string `json:"activities"`
}

// Timeline groups the extraction phases in order.
type Timeline struct {
	Phases []TimelinePhase `json:"phases"`
}

// Risk describes one extraction risk and its mitigation.
type Risk struct {
	Category           string `json:"category"`
	Description        string `json:"description"`
	MitigationStrategy string `json:"mitigationStrategy,omitempty"`
	ImpactLevel        string `json:"impactLevel"` // low, medium, high
}

// Sensitivity holds best/base/worst case net outcomes.
type Sensitivity struct {
	BestCase    float64  `json:"bestCase"`
	BaseCase    float64  `json:"baseCase"`
	WorstCase   float64  `json:"worstCase"`
	Assumptions []string `json:"assumptions,omitempty"`
}

// ExtractionPlan is the generated recovery plan and economics for a batch.
// Singleton per batch.
type ExtractionPlan struct {
	RecommendedProcesses []RecommendedProcess `json:"recommendedProcesses"`
	TotalCostUSD         float64              `json:"totalCostUsd"`
	CapexUSD             float64              `json:"capexUsd"`
	OpexUSD              float64              `json:"opexUsd"`
	LogisticsCostUSD     float64              `json:"logisticsCostUsd"`
	Timeline             Timeline             `json:"timeline"`
	Risks                []Risk               `json:"risks"`
	Sensitivity          Sensitivity          `json:"sensitivity"`
	NetProfitUSD         float64              `json:"netProfitUsd"`
	Citations            []Citation           `json:"citations"`

	BatchID    string    `json:"batchId,omitempty"`
	PromptHash string    `json:"promptHash,omitempty"`
	ModelUsed  string    `json:"modelUsed,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

package model

import "time"

// Verdict is the investment recommendation for a batch.
type Verdict string

const (
	VerdictViable    Verdict = "Viable"
	VerdictNotViable Verdict = "NotViable"
	VerdictUncertain Verdict = "Uncertain"
)

// DeriveVerdict maps net profit to a verdict. Anything within $1000 of
// break-even on the losing side is Uncertain rather than NotViable.
func DeriveVerdict(netProfitUSD float64) Verdict {
	switch {
	case netProfitUSD > 0:
		return VerdictViable
	case netProfitUSD > -1000:
		return VerdictUncertain
	default:
		return VerdictNotViable
	}
}

// ExecutiveSummary is the headline economics of an investor report.
type ExecutiveSummary struct {
	GrossValueUSD float64    `json:"grossValueUsd"`
	TotalCostUSD  float64    `json:"totalCostUsd"`
	NetProfitUSD  float64    `json:"netProfitUsd"`
	Verdict       Verdict    `json:"verdict"`
	Confidence    Confidence `json:"confidence"`
}

// DetectionSummary rolls up detection labels across all images in a batch.
type DetectionSummary struct {
	ImagesProcessed int              `json:"imagesProcessed"`
	Labels          []DetectionLabel `json:"labels"`
}

// ReportMetals is the metals section of an investor report.
type ReportMetals struct {
	AggregateTotalsKg map[string]float64    `json:"aggregateTotalsKg"`
	Uncertainty       map[string]Confidence `json:"uncertainty"`
	Citations         []Citation            `json:"citations"`
}

// ReportPricing is the pricing section of an investor report.
type ReportPricing struct {
	TimestampUTC       string             `json:"timestampUtc"`
	Currency           string             `json:"currency"`
	PricesPerKg        map[string]float64 `json:"pricesPerKg"`
	TotalGrossValueUSD float64            `json:"totalGrossValueUsd"`
	Sources            []Citation         `json:"sources"`
}

// ReportExtraction is the extraction section of an investor report.
type ReportExtraction struct {
	TotalCostUSD float64         `json:"totalCostUsd"`
	NetProfitUSD float64         `json:"netProfitUsd"`
	Plan         *ExtractionPlan `json:"plan"`
	Risks        []Risk          `json:"risks"`
	Sensitivity  Sensitivity     `json:"sensitivity"`
	Citations    []Citation      `json:"citations"`
}

// AuditTrail records which models produced the report's inputs.
type AuditTrail struct {
	DetectorVersion string            `json:"detectorVersion"`
	LlmModels       map[string]string `json:"llmModels"`
	PromptHashes    map[string]string `json:"promptHashes"`
	CreatedAtUTC    time.Time         `json:"createdAtUtc"`
}

// InvestorReport is the final deterministic assembly of all pipeline
// outputs. Singleton per batch; regeneration overwrites it.
type InvestorReport struct {
	ExecutiveSummary ExecutiveSummary  `json:"executiveSummary"`
	Inventory        []InventoryItem   `json:"inventory"`
	Detections       *DetectionSummary `json:"detections,omitempty"`
	Metals           ReportMetals      `json:"metals"`
	Pricing          ReportPricing     `json:"pricing"`
	Extraction       ReportExtraction  `json:"extraction"`
	AuditTrail       AuditTrail        `json:"auditTrail"`
}

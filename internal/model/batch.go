package model

import "time"

// InventoryType is the closed taxonomy every raw label normalizes into.
type InventoryType string

const (
	TypeLaptop     InventoryType = "laptop"
	TypeSmartphone InventoryType = "smartphone"
	TypePCB        InventoryType = "pcb"
	TypeBattery    InventoryType = "battery"
	TypeCable      InventoryType = "cable"
	TypeOther      InventoryType = "other"
)

// Unit is the quantity unit for an inventory item.
type Unit string

const (
	UnitCount Unit = "count"
	UnitKg    Unit = "kg"
	UnitTons  Unit = "tons"
)

// Confidence grades how reliable a value is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Batch is a collection of e-waste material submitted for assessment,
// together with everything the pipeline has derived from it so far.
type Batch struct {
	ID        string         `json:"id"`
	Location  string         `json:"location"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`

	ImageAssets    []ImageAsset         `json:"imageAssets,omitempty"`
	TextEntries    []TextInventoryEntry `json:"textEntries,omitempty"`
	Inventory      []InventoryItem      `json:"inventory,omitempty"`
	MetalEstimate  *MetalEstimate       `json:"metalEstimate,omitempty"`
	PriceSnapshot  *PriceSnapshot       `json:"priceSnapshot,omitempty"`
	ExtractionPlan *ExtractionPlan      `json:"extractionPlan,omitempty"`
	InvestorReport *InvestorReport      `json:"investorReport,omitempty"`
	Runs           []PipelineRun        `json:"runs,omitempty"`
}

// ImageAsset is an uploaded batch photo plus its detection result, if any.
type ImageAsset struct {
	ID         string           `json:"id"`
	BatchID    string           `json:"batchId"`
	Filename   string           `json:"filename"`
	StorageKey string           `json:"storageKey"`
	MimeType   string           `json:"mimeType"`
	Size       int64            `json:"size"`
	Detection  *DetectionOutput `json:"detection,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// TextInventoryEntry is one free-text inventory submission for a batch.
type TextInventoryEntry struct {
	ID          string    `json:"id"`
	BatchID     string    `json:"batchId"`
	RawText     string    `json:"rawText"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// InventoryItem is a normalized line of batch inventory. Quantity keeps
// whatever the parser extracted, including fractional weights.
type InventoryItem struct {
	ID             string        `json:"id,omitempty"`
	RawLabel       string        `json:"rawLabel"`
	NormalizedType InventoryType `json:"normalizedType"`
	Manufacturer   string        `json:"manufacturer,omitempty"`
	Model          string        `json:"model,omitempty"`
	Quantity       float64       `json:"quantity"`
	Unit           Unit          `json:"unit"`
	Confidence     Confidence    `json:"confidence"`
}

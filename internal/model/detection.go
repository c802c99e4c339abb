package model

// BoundingBox is a single detected region in an image.
type BoundingBox struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label"`
}

// DetectionLabel summarizes all boxes sharing one label.
type DetectionLabel struct {
	Label          string  `json:"label"`
	Count          int     `json:"count"`
	ConfidenceMean float64 `json:"confidenceMean"`
}

// DetectionOutput is the full result of running a detector on one image.
type DetectionOutput struct {
	RawBoxes      []BoundingBox    `json:"rawBoxes"`
	SummaryLabels []DetectionLabel `json:"summaryLabels"`
	ModelVersion  string           `json:"modelVersion"`
}

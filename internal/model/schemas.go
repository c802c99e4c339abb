package model

import (
	"time"

	"github.com/reclaimworks/assay-cli/pkg/genai"
)

func validConfidence(c Confidence) bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

var confidenceEnum = []string{string(ConfidenceHigh), string(ConfidenceMedium), string(ConfidenceLow)}

var citationFields = []genai.Field{
	{Name: "source", Type: "string"},
	{Name: "url", Type: "string"},
	{Name: "title", Type: "string"},
	{Name: "date", Type: "string"},
	{Name: "confidence", Type: "string", Enum: confidenceEnum},
}

// MetalEstimateSchema is the expected shape of the metal estimation
// response.
var MetalEstimateSchema = genai.Schema[MetalEstimate]{
	Name: "metal_estimate",
	Fields: []genai.Field{
		{Name: "composition", Type: "map", Required: true, Desc: "item type to per-metal breakdown", Fields: []genai.Field{
			{Name: "grams", Type: "number", Required: true, Desc: "non-negative"},
			{Name: "confidence", Type: "string", Required: true, Enum: confidenceEnum},
		}},
		{Name: "aggregateTotalsKg", Type: "map", Required: true, Desc: "metal name to total kilograms, non-negative"},
		{Name: "uncertainty", Type: "map", Required: true, Desc: "metal name (or 'aggregate') to confidence", Fields: []genai.Field{
			{Name: "value", Type: "string", Required: true, Enum: confidenceEnum},
		}},
		{Name: "citations", Type: "array", Required: true, Fields: citationFields},
	},
	Check: func(m *MetalEstimate) error {
		if m.Composition == nil {
			return genai.Invalid("metal_estimate", "composition", "missing")
		}
		for metal, c := range m.Composition {
			if c.Grams < 0 {
				return genai.Invalid("metal_estimate", "composition."+metal, "negative grams")
			}
			if !validConfidence(c.Confidence) {
				return genai.Invalid("metal_estimate", "composition."+metal, "invalid confidence %q", c.Confidence)
			}
		}
		if m.AggregateTotalsKg == nil {
			return genai.Invalid("metal_estimate", "aggregateTotalsKg", "missing")
		}
		for metal, kg := range m.AggregateTotalsKg {
			if kg < 0 {
				return genai.Invalid("metal_estimate", "aggregateTotalsKg."+metal, "negative total")
			}
		}
		if m.Uncertainty == nil {
			return genai.Invalid("metal_estimate", "uncertainty", "missing")
		}
		for k, c := range m.Uncertainty {
			if !validConfidence(c) {
				return genai.Invalid("metal_estimate", "uncertainty."+k, "invalid confidence %q", c)
			}
		}
		if m.Citations == nil {
			m.Citations = []Citation{}
		}
		return nil
	},
}

// PriceSnapshotSchema is the expected shape of the metal pricing response.
var PriceSnapshotSchema = genai.Schema[PriceSnapshot]{
	Name: "price_snapshot",
	Fields: []genai.Field{
		{Name: "timestampUtc", Type: "string", Required: true, Desc: "RFC 3339 timestamp"},
		{Name: "currency", Type: "string", Required: true, Enum: []string{"USD"}},
		{Name: "pricesPerKg", Type: "map", Required: true, Desc: "metal name to positive USD price per kg"},
		{Name: "totalGrossValueUsd", Type: "number", Required: true, Desc: "non-negative"},
		{Name: "sources", Type: "array", Required: true, Fields: citationFields},
	},
	Check: func(p *PriceSnapshot) error {
		if _, err := time.Parse(time.RFC3339, p.TimestampUTC); err != nil {
			return genai.Invalid("price_snapshot", "timestampUtc", "not RFC 3339: %q", p.TimestampUTC)
		}
		if p.Currency != "USD" {
			return genai.Invalid("price_snapshot", "currency", "must be USD, got %q", p.Currency)
		}
		if p.PricesPerKg == nil {
			return genai.Invalid("price_snapshot", "pricesPerKg", "missing")
		}
		for metal, price := range p.PricesPerKg {
			if price <= 0 {
				return genai.Invalid("price_snapshot", "pricesPerKg."+metal, "price must be positive")
			}
		}
		if p.TotalGrossValueUSD < 0 {
			return genai.Invalid("price_snapshot", "totalGrossValueUsd", "negative")
		}
		if p.Sources == nil {
			p.Sources = []Citation{}
		}
		return nil
	},
}

// ExtractionPlanSchema is the expected shape of the extraction planning
// response.
var ExtractionPlanSchema = genai.Schema[ExtractionPlan]{
	Name: "extraction_plan",
	Fields: []genai.Field{
		{Name: "recommendedProcesses", Type: "array", Required: true, Fields: []genai.Field{
			{Name: "metalType", Type: "string", Required: true},
			{Name: "process", Type: "string", Required: true},
			{Name: "duration", Type: "string", Required: true},
			{Name: "yield", Type: "number", Required: true, Desc: "percent, 0-100"},
		}},
		{Name: "totalCostUsd", Type: "number", Required: true, Desc: "non-negative"},
		{Name: "capexUsd", Type: "number", Required: true, Desc: "non-negative"},
		{Name: "opexUsd", Type: "number", Required: true, Desc: "non-negative"},
		{Name: "logisticsCostUsd", Type: "number", Required: true, Desc: "non-negative"},
		{Name: "timeline", Type: "object", Required: true, Fields: []genai.Field{
			{Name: "phases", Type: "array", Required: true, Fields: []genai.Field{
				{Name: "name", Type: "string", Required: true},
				{Name: "duration", Type: "string", Required: true},
				{Name: "activities", Type: "array", Required: true, Desc: "strings"},
			}},
		}},
		{Name: "risks", Type: "array", Required: true, Fields: []genai.Field{
			{Name: "category", Type: "string", Required: true},
			{Name: "description", Type: "string", Required: true},
			{Name: "mitigationStrategy", Type: "string"},
			{Name: "impactLevel", Type: "string", Required: true, Enum: []string{"low", "medium", "high"}},
		}},
		{Name: "sensitivity", Type: "object", Required: true, Fields: []genai.Field{
			{Name: "bestCase", Type: "number", Required: true},
			{Name: "baseCase", Type: "number", Required: true},
			{Name: "worstCase", Type: "number", Required: true},
			{Name: "assumptions", Type: "array", Desc: "strings"},
		}},
		{Name: "netProfitUsd", Type: "number", Required: true},
		{Name: "citations", Type: "array", Required: true, Fields: citationFields},
	},
	Check: func(p *ExtractionPlan) error {
		if p.RecommendedProcesses == nil {
			return genai.Invalid("extraction_plan", "recommendedProcesses", "missing")
		}
		for i, proc := range p.RecommendedProcesses {
			if proc.Yield < 0 || proc.Yield > 100 {
				return genai.Invalid("extraction_plan", "recommendedProcesses", "yield out of range at index %d", i)
			}
		}
		for field, v := range map[string]float64{
			"totalCostUsd":     p.TotalCostUSD,
			"capexUsd":         p.CapexUSD,
			"opexUsd":          p.OpexUSD,
			"logisticsCostUsd": p.LogisticsCostUSD,
		} {
			if v < 0 {
				return genai.Invalid("extraction_plan", field, "negative")
			}
		}
		for i, r := range p.Risks {
			switch r.ImpactLevel {
			case "low", "medium", "high":
			default:
				return genai.Invalid("extraction_plan", "risks", "invalid impactLevel %q at index %d", r.ImpactLevel, i)
			}
		}
		if p.Risks == nil {
			p.Risks = []Risk{}
		}
		if p.Citations == nil {
			p.Citations = []Citation{}
		}
		return nil
	},
}

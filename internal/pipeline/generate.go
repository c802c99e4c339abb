package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/reclaimworks/assay-cli/internal/model"
	"github.com/reclaimworks/assay-cli/pkg/genai"
)

// EstimateStepOutput is the recorded output of the metal estimation step.
type EstimateStepOutput struct {
	Estimate *model.MetalEstimate `json:"metalEstimate"`
	Meta     genai.LlmMeta        `json:"meta"`
}

// PriceStepOutput is the recorded output of the pricing step.
type PriceStepOutput struct {
	Snapshot *model.PriceSnapshot `json:"priceSnapshot"`
	Meta     genai.LlmMeta        `json:"meta"`
}

// PlanStepOutput is the recorded output of the extraction planning step.
type PlanStepOutput struct {
	Plan *model.ExtractionPlan `json:"extractionPlan"`
	Meta genai.LlmMeta         `json:"meta"`
}

// estimateMetals asks the model for a metal composition of the batch's
// normalized inventory and upserts the singleton estimate.
func (p *Pipeline) estimateMetals(ctx context.Context, runID, batchID string) (*EstimateStepOutput, error) {
	out, err := p.executeStep(ctx, runID, batchID, model.StepEstimatingMetals, func(ctx context.Context) (any, error) {
		batch, err := p.store.GetBatch(ctx, batchID)
		if err != nil {
			return nil, err
		}

		if len(batch.Inventory) == 0 {
			return nil, precondition("No normalized inventory for metal estimation")
		}

		lines := make([]string, 0, len(batch.Inventory))
		for _, item := range batch.Inventory {
			lines = append(lines, fmt.Sprintf("%s - Quantity: %v %s", item.NormalizedType, item.Quantity, item.Unit))
		}

		prompt := fmt.Sprintf(`Analyze the following e-waste inventory and provide detailed metal composition estimates:

%s

For each item type, estimate:
1. Precious metals (gold, silver, palladium, etc.)
2. Base metals (copper, aluminum, etc.)
3. Confidence levels

Provide aggregate totals in kilograms.`, strings.Join(lines, "\n"))

		result, err := genai.GenerateStructured(ctx, p.gen, p.cfg.GenAI.Model, prompt, model.MetalEstimateSchema,
			genai.WithTemperature(p.cfg.GenAI.Temperature))
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: estimate metals")
		}

		est := result.Data
		est.PromptHash = result.Meta.PromptHash
		est.ModelUsed = result.Meta.ModelName
		if err := p.store.UpsertMetalEstimate(ctx, batchID, &est); err != nil {
			return nil, err
		}

		return &EstimateStepOutput{Estimate: &est, Meta: result.Meta}, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*EstimateStepOutput), nil
}

// priceMetals asks the model for grounded market prices over the
// estimate's aggregate totals and upserts the singleton snapshot.
func (p *Pipeline) priceMetals(ctx context.Context, runID, batchID string) (*PriceStepOutput, error) {
	out, err := p.executeStep(ctx, runID, batchID, model.StepPricingMetals, func(ctx context.Context) (any, error) {
		batch, err := p.store.GetBatch(ctx, batchID)
		if err != nil {
			return nil, err
		}

		if batch.MetalEstimate == nil {
			return nil, precondition("Metal estimate required for pricing")
		}

		metals := make([]string, 0, len(batch.MetalEstimate.AggregateTotalsKg))
		for metal := range batch.MetalEstimate.AggregateTotalsKg {
			metals = append(metals, metal)
		}
		sort.Strings(metals)

		lines := make([]string, 0, len(metals))
		for _, metal := range metals {
			lines = append(lines, fmt.Sprintf("%s: %v kg", metal, batch.MetalEstimate.AggregateTotalsKg[metal]))
		}

		prompt := fmt.Sprintf(`Provide current market prices (USD) for these precious and base metals:

%s

Include:
1. Current market price per kg
2. Source of pricing data
3. Timestamp
4. Market citations

Calculate gross value for the inventory.`, strings.Join(lines, "\n"))

		result, err := genai.GenerateStructured(ctx, p.gen, p.cfg.GenAI.Model, prompt, model.PriceSnapshotSchema,
			genai.WithTemperature(p.cfg.GenAI.Temperature), genai.WithGrounded())
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: price metals")
		}

		snap := result.Data
		snap.PromptHash = result.Meta.PromptHash
		snap.ModelUsed = result.Meta.ModelName
		if err := p.store.UpsertPriceSnapshot(ctx, batchID, &snap); err != nil {
			return nil, err
		}

		return &PriceStepOutput{Snapshot: &snap, Meta: result.Meta}, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*PriceStepOutput), nil
}

// planExtraction asks the model for a grounded recovery plan built on the
// estimate and price snapshot, and upserts the singleton plan.
func (p *Pipeline) planExtraction(ctx context.Context, runID, batchID string) (*PlanStepOutput, error) {
	out, err := p.executeStep(ctx, runID, batchID, model.StepPlanningExtraction, func(ctx context.Context) (any, error) {
		batch, err := p.store.GetBatch(ctx, batchID)
		if err != nil {
			return nil, err
		}

		if batch.MetalEstimate == nil || batch.PriceSnapshot == nil {
			return nil, precondition("Metal estimate and pricing required for extraction")
		}

		metalsJSON, err := json.MarshalIndent(batch.MetalEstimate.AggregateTotalsKg, "", "  ")
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: marshal metals")
		}
		pricesJSON, err := json.MarshalIndent(batch.PriceSnapshot.PricesPerKg, "", "  ")
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: marshal prices")
		}

		prompt := fmt.Sprintf(`Create an extraction and recycling plan for this e-waste batch:

Metals (kg): %s
Market Prices (USD/kg): %s
Gross Value: $%v
Location: %s

Provide:
1. Recommended processes per metal type
2. CAPEX estimate
3. OPEX estimate
4. Logistics costs
5. Timeline
6. Risks and mitigation
7. Sensitivity analysis (best/base/worst case)
8. Net profit calculation`,
			metalsJSON, pricesJSON, batch.PriceSnapshot.TotalGrossValueUSD, batch.Location)

		result, err := genai.GenerateStructured(ctx, p.gen, p.cfg.GenAI.Model, prompt, model.ExtractionPlanSchema,
			genai.WithTemperature(p.cfg.GenAI.Temperature), genai.WithGrounded())
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: plan extraction")
		}

		plan := result.Data
		plan.PromptHash = result.Meta.PromptHash
		plan.ModelUsed = result.Meta.ModelName
		if err := p.store.UpsertExtractionPlan(ctx, batchID, &plan); err != nil {
			return nil, err
		}

		return &PlanStepOutput{Plan: &plan, Meta: result.Meta}, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*PlanStepOutput), nil
}

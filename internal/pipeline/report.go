package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/reclaimworks/assay-cli/internal/model"
)

// generateReport deterministically assembles the investor report from the
// stored pipeline outputs. No model call happens here.
func (p *Pipeline) generateReport(ctx context.Context, runID, batchID string) (*model.InvestorReport, error) {
	out, err := p.executeStep(ctx, runID, batchID, model.StepGeneratingReport, func(ctx context.Context) (any, error) {
		batch, err := p.store.GetBatch(ctx, batchID)
		if err != nil {
			return nil, err
		}

		metals := batch.MetalEstimate
		pricing := batch.PriceSnapshot
		extraction := batch.ExtractionPlan
		if metals == nil || pricing == nil || extraction == nil {
			return nil, precondition("Missing required pipeline outputs for report generation")
		}

		grossValue := pricing.TotalGrossValueUSD
		totalCost := extraction.TotalCostUSD
		netProfit := grossValue - totalCost

		confidence := model.ConfidenceMedium
		if c, ok := metals.Uncertainty["aggregate"]; ok && c != "" {
			confidence = c
		}

		inventory := batch.Inventory
		if inventory == nil {
			inventory = []model.InventoryItem{}
		}

		report := &model.InvestorReport{
			ExecutiveSummary: model.ExecutiveSummary{
				GrossValueUSD: grossValue,
				TotalCostUSD:  totalCost,
				NetProfitUSD:  netProfit,
				Verdict:       model.DeriveVerdict(netProfit),
				Confidence:    confidence,
			},
			Inventory:  inventory,
			Detections: summarizeDetections(batch.ImageAssets),
			Metals: model.ReportMetals{
				AggregateTotalsKg: metals.AggregateTotalsKg,
				Uncertainty:       metals.Uncertainty,
				Citations:         metals.Citations,
			},
			Pricing: model.ReportPricing{
				TimestampUTC:       pricing.TimestampUTC,
				Currency:           pricing.Currency,
				PricesPerKg:        pricing.PricesPerKg,
				TotalGrossValueUSD: pricing.TotalGrossValueUSD,
				Sources:            pricing.Sources,
			},
			Extraction: model.ReportExtraction{
				TotalCostUSD: extraction.TotalCostUSD,
				NetProfitUSD: extraction.NetProfitUSD,
				Plan:         extraction,
				Risks:        extraction.Risks,
				Sensitivity:  extraction.Sensitivity,
				Citations:    extraction.Citations,
			},
			AuditTrail: model.AuditTrail{
				DetectorVersion: p.detector.Version(),
				LlmModels: map[string]string{
					"metals":     metals.ModelUsed,
					"pricing":    pricing.ModelUsed,
					"extraction": extraction.ModelUsed,
				},
				PromptHashes: map[string]string{
					"metals":     metals.PromptHash,
					"pricing":    pricing.PromptHash,
					"extraction": extraction.PromptHash,
				},
				CreatedAtUTC: time.Now().UTC(),
			},
		}

		if err := p.store.UpsertInvestorReport(ctx, batchID, report); err != nil {
			return nil, err
		}

		return report, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*model.InvestorReport), nil
}

// summarizeDetections merges per-image label summaries into batch-level
// totals. Counts add; confidences average across images. Returns nil when
// nothing was detected, which elides the section from the report.
func summarizeDetections(assets []model.ImageAsset) *model.DetectionSummary {
	type acc struct {
		count       int
		confidences []float64
	}

	byLabel := map[string]*acc{}
	for _, asset := range assets {
		if asset.Detection == nil {
			continue
		}
		for _, label := range asset.Detection.SummaryLabels {
			a := byLabel[label.Label]
			if a == nil {
				a = &acc{}
				byLabel[label.Label] = a
			}
			a.count += label.Count
			a.confidences = append(a.confidences, label.ConfidenceMean)
		}
	}

	if len(byLabel) == 0 {
		return nil
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	summary := &model.DetectionSummary{ImagesProcessed: len(assets)}
	for _, label := range labels {
		a := byLabel[label]
		var sum float64
		for _, c := range a.confidences {
			sum += c
		}
		summary.Labels = append(summary.Labels, model.DetectionLabel{
			Label:          label,
			Count:          a.count,
			ConfidenceMean: sum / float64(len(a.confidences)),
		})
	}
	return summary
}

package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/reclaimworks/assay-cli/internal/inventory"
	"github.com/reclaimworks/assay-cli/internal/model"
)

// DetectionStepOutput is the recorded output of the detection step.
type DetectionStepOutput struct {
	ImagesProcessed int                     `json:"imagesProcessed"`
	Detections      []model.DetectionOutput `json:"detections"`
}

// TextStepOutput is the recorded output of the text parsing step.
type TextStepOutput struct {
	Items []inventory.ParsedItem `json:"textInventoryItems"`
	Count int                    `json:"count"`
}

// NormalizeStepOutput is the recorded output of the normalization step.
type NormalizeStepOutput struct {
	Items []model.InventoryItem `json:"normalizedItems"`
	Count int                   `json:"count"`
}

// detectImages runs the detector over every image asset. Existing
// detections are reused unless force is set. A batch with no images
// completes the step with zero detections.
func (p *Pipeline) detectImages(ctx context.Context, runID, batchID string, force bool) (*DetectionStepOutput, error) {
	out, err := p.executeStep(ctx, runID, batchID, model.StepDetecting, func(ctx context.Context) (any, error) {
		batch, err := p.store.GetBatch(ctx, batchID)
		if err != nil {
			return nil, err
		}

		if len(batch.ImageAssets) == 0 {
			zap.L().Info("pipeline: no images to detect", zap.String("batch_id", batchID))
			return &DetectionStepOutput{ImagesProcessed: 0, Detections: []model.DetectionOutput{}}, nil
		}

		result := &DetectionStepOutput{ImagesProcessed: len(batch.ImageAssets)}
		for _, asset := range batch.ImageAssets {
			if asset.Detection != nil && !force {
				result.Detections = append(result.Detections, *asset.Detection)
				continue
			}

			det, err := p.detector.Detect(ctx, nil)
			if err != nil {
				return nil, err
			}
			if err := p.store.SetDetection(ctx, asset.ID, det); err != nil {
				return nil, err
			}
			result.Detections = append(result.Detections, *det)
		}

		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*DetectionStepOutput), nil
}

// parseTextInventory extracts items from every free-text entry.
func (p *Pipeline) parseTextInventory(ctx context.Context, runID, batchID string) (*TextStepOutput, error) {
	out, err := p.executeStep(ctx, runID, batchID, model.StepParsingTextInventory, func(ctx context.Context) (any, error) {
		batch, err := p.store.GetBatch(ctx, batchID)
		if err != nil {
			return nil, err
		}

		result := &TextStepOutput{Items: []inventory.ParsedItem{}}
		for _, entry := range batch.TextEntries {
			result.Items = append(result.Items, inventory.ParseText(entry.RawText)...)
		}
		result.Count = len(result.Items)

		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*TextStepOutput), nil
}

// normalizeInventory folds detection labels and parsed text items into
// the closed taxonomy and replaces the batch's stored inventory.
func (p *Pipeline) normalizeInventory(ctx context.Context, runID, batchID string, detections *DetectionStepOutput, textItems *TextStepOutput) (*NormalizeStepOutput, error) {
	out, err := p.executeStep(ctx, runID, batchID, model.StepNormalizingInventory, func(ctx context.Context) (any, error) {
		normalized := []model.InventoryItem{}

		if detections != nil {
			for _, det := range detections.Detections {
				for _, label := range det.SummaryLabels {
					confidence := model.ConfidenceMedium
					if label.ConfidenceMean > 0.8 {
						confidence = model.ConfidenceHigh
					}
					normalized = append(normalized, model.InventoryItem{
						RawLabel:       label.Label,
						NormalizedType: inventory.Normalize(label.Label),
						Quantity:       float64(label.Count),
						Unit:           model.UnitCount,
						Confidence:     confidence,
					})
				}
			}
		}

		if textItems != nil {
			for _, item := range textItems.Items {
				confidence := item.Confidence
				if confidence == "" {
					confidence = model.ConfidenceHigh
				}
				normalized = append(normalized, model.InventoryItem{
					RawLabel:       item.RawLabel,
					NormalizedType: inventory.Normalize(item.RawLabel),
					Quantity:       item.Quantity,
					Unit:           model.ParseUnit(item.Unit),
					Confidence:     confidence,
				})
			}
		}

		if err := p.store.ReplaceInventory(ctx, batchID, normalized); err != nil {
			return nil, err
		}

		return &NormalizeStepOutput{Items: normalized, Count: len(normalized)}, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*NormalizeStepOutput), nil
}

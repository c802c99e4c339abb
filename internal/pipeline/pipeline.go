// Package pipeline orchestrates the seven-step batch assessment:
// detection, text parsing, normalization, metal estimation, pricing,
// extraction planning, and report assembly.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reclaimworks/assay-cli/internal/config"
	"github.com/reclaimworks/assay-cli/internal/detect"
	"github.com/reclaimworks/assay-cli/internal/model"
	"github.com/reclaimworks/assay-cli/internal/store"
	"github.com/reclaimworks/assay-cli/pkg/genai"
)

// Pipeline runs the assessment steps for a batch, strictly in order.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	detector detect.Detector
	gen      genai.Generator

	// One in-flight run per batch. A second concurrent run for the same
	// batch fails fast instead of queueing.
	running sync.Map
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, st store.Store, detector detect.Detector, gen genai.Generator) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		detector: detector,
		gen:      gen,
	}
}

// RunOutcome summarizes a completed pipeline run.
type RunOutcome struct {
	BatchID string                `json:"batchId"`
	RunID   string                `json:"runId"`
	Status  model.StepStatus      `json:"status"`
	Report  *model.InvestorReport `json:"report"`
}

// RunFull executes every step for the batch. The run record is left at
// the failing step on error; completed prior steps keep their results.
func (p *Pipeline) RunFull(ctx context.Context, batchID string, force bool) (*RunOutcome, error) {
	if _, loaded := p.running.LoadOrStore(batchID, struct{}{}); loaded {
		return nil, eris.Errorf("pipeline: run already in progress for batch %s", batchID)
	}
	defer p.running.Delete(batchID)

	log := zap.L().With(zap.String("batch_id", batchID))
	log.Info("pipeline: starting run", zap.Bool("force", force))

	run, err := p.store.CreateRun(ctx, batchID, map[string]string{
		"detector":  p.detector.Version(),
		"generator": p.cfg.GenAI.Model,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	detections, err := p.detectImages(ctx, run.ID, batchID, force)
	if err != nil {
		return nil, err
	}

	textItems, err := p.parseTextInventory(ctx, run.ID, batchID)
	if err != nil {
		return nil, err
	}

	if _, err := p.normalizeInventory(ctx, run.ID, batchID, detections, textItems); err != nil {
		return nil, err
	}

	if _, err := p.estimateMetals(ctx, run.ID, batchID); err != nil {
		return nil, err
	}

	if _, err := p.priceMetals(ctx, run.ID, batchID); err != nil {
		return nil, err
	}

	if _, err := p.planExtraction(ctx, run.ID, batchID); err != nil {
		return nil, err
	}

	report, err := p.generateReport(ctx, run.ID, batchID)
	if err != nil {
		return nil, err
	}

	if err := p.store.UpdatePipelineStep(ctx, run.ID, model.StepDone, model.StepResult{
		Status: model.StatusCompleted,
		Output: map[string]any{"status": "success"},
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: mark done")
	}

	log.Info("pipeline: run complete", zap.String("run_id", run.ID))

	return &RunOutcome{
		BatchID: batchID,
		RunID:   run.ID,
		Status:  model.StatusCompleted,
		Report:  report,
	}, nil
}

// executeStep wraps one step: marks it in_progress, runs fn, then records
// completed output or the failure before re-raising it.
func (p *Pipeline) executeStep(ctx context.Context, runID, batchID string, step model.StepName, fn func(ctx context.Context) (any, error)) (any, error) {
	log := zap.L().With(
		zap.String("batch_id", batchID),
		zap.String("run_id", runID),
		zap.String("step", string(step)),
	)

	start := time.Now()
	log.Info("pipeline: step starting")

	if err := p.store.UpdatePipelineStep(ctx, runID, step, model.StepResult{
		Status: model.StatusInProgress,
	}); err != nil {
		return nil, eris.Wrapf(err, "pipeline: mark %s in progress", step)
	}

	output, err := fn(ctx)
	duration := time.Since(start).Milliseconds()

	if err != nil {
		log.Error("pipeline: step failed", zap.Int64("duration_ms", duration), zap.Error(err))
		if recordErr := p.store.UpdatePipelineStep(ctx, runID, step, model.StepResult{
			Status:   model.StatusFailed,
			Error:    err.Error(),
			Duration: duration,
		}); recordErr != nil {
			log.Warn("pipeline: failed to record step failure", zap.Error(recordErr))
		}
		return nil, err
	}

	if err := p.store.UpdatePipelineStep(ctx, runID, step, model.StepResult{
		Status:   model.StatusCompleted,
		Output:   output,
		Duration: duration,
	}); err != nil {
		return nil, eris.Wrapf(err, "pipeline: record %s result", step)
	}

	log.Info("pipeline: step complete", zap.Int64("duration_ms", duration))
	return output, nil
}

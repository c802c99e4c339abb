package pipeline

import (
	"context"

	"github.com/reclaimworks/assay-cli/internal/model"
)

// Status reports the state of a batch's most recent run. Batches that
// have never been run report NOT_STARTED at zero progress.
func (p *Pipeline) Status(ctx context.Context, batchID string) (*model.PipelineStatus, error) {
	runs, err := p.store.ListRuns(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if len(runs) == 0 {
		// Distinguish a missing batch from one that simply has no runs.
		if _, err := p.store.GetBatch(ctx, batchID); err != nil {
			return nil, err
		}
		return &model.PipelineStatus{
			BatchID:     batchID,
			CurrentStep: model.StepNotStarted,
			Status:      model.StatusPending,
			Progress:    0,
		}, nil
	}

	latest := runs[0]
	return &model.PipelineStatus{
		BatchID:     batchID,
		RunID:       latest.ID,
		CurrentStep: latest.CurrentStep,
		Status:      latest.Status,
		StepResults: latest.StepResults,
		Progress:    latest.Progress(),
	}, nil
}

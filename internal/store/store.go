// Package store persists batches, pipeline runs, and generated outputs.
// Two backends exist: SQLite (default, local) and PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/reclaimworks/assay-cli/internal/model"
)

// Store is the persistence boundary of the application.
type Store interface {
	// Migrate creates or updates the schema.
	Migrate(ctx context.Context) error
	Close() error

	CreateBatch(ctx context.Context, location string, metadata map[string]any) (*model.Batch, error)
	// GetBatch returns the batch fully hydrated: assets with detections,
	// text entries, normalized inventory, singleton outputs, and runs.
	GetBatch(ctx context.Context, batchID string) (*model.Batch, error)

	AddImageAsset(ctx context.Context, batchID, filename, storageKey, mimeType string, size int64) (*model.ImageAsset, error)
	AddTextEntry(ctx context.Context, batchID, rawText string) (*model.TextInventoryEntry, error)
	// SetDetection attaches (or overwrites) the detection result for an image.
	SetDetection(ctx context.Context, imageAssetID string, det *model.DetectionOutput) error

	// ReplaceInventory atomically swaps the batch's normalized inventory.
	ReplaceInventory(ctx context.Context, batchID string, items []model.InventoryItem) error
	GetInventory(ctx context.Context, batchID string) ([]model.InventoryItem, error)

	CreateRun(ctx context.Context, batchID string, modelVersions map[string]string) (*model.PipelineRun, error)
	GetRun(ctx context.Context, runID string) (*model.PipelineRun, error)
	// ListRuns returns a batch's runs, newest first.
	ListRuns(ctx context.Context, batchID string) ([]model.PipelineRun, error)
	// UpdatePipelineStep records one step result and moves the run's
	// current step and status to match it.
	UpdatePipelineStep(ctx context.Context, runID string, step model.StepName, result model.StepResult) error

	UpsertMetalEstimate(ctx context.Context, batchID string, est *model.MetalEstimate) error
	UpsertPriceSnapshot(ctx context.Context, batchID string, snap *model.PriceSnapshot) error
	UpsertExtractionPlan(ctx context.Context, batchID string, plan *model.ExtractionPlan) error
	UpsertInvestorReport(ctx context.Context, batchID string, report *model.InvestorReport) error

	GetMetalEstimate(ctx context.Context, batchID string) (*model.MetalEstimate, error)
	GetPriceSnapshot(ctx context.Context, batchID string) (*model.PriceSnapshot, error)
	GetExtractionPlan(ctx context.Context, batchID string) (*model.ExtractionPlan, error)
	GetInvestorReport(ctx context.Context, batchID string) (*model.InvestorReport, error)
}

// NotFoundError reports a missing entity. Read queries for singletons that
// have not been generated yet return this with the singleton's entity name.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reclaimworks/assay-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, batch_id, current_step, status, step_results, model_versions, created_at, updated_at`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	results, _ := json.Marshal(map[model.StepName]model.StepResult{
		model.StepDetecting: {Status: model.StatusCompleted, Duration: 12, Timestamp: now},
	})
	versions, _ := json.Marshal(map[string]string{"detector": "stub-v1"})

	mock.ExpectQuery(`SELECT id, batch_id, current_step, status, step_results, model_versions, created_at, updated_at`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "batch_id", "current_step", "status", "step_results", "model_versions", "created_at", "updated_at",
		}).AddRow("run-1", "batch-1", "DETECTING", "completed", results, versions, now, now))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.StepDetecting, run.CurrentStep)
	assert.Equal(t, model.StatusCompleted, run.StepResults[model.StepDetecting].Status)
	assert.Equal(t, "stub-v1", run.ModelVersions["detector"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetBatch_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, location, metadata, created_at FROM batches`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetBatch(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMetalEstimate_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data, prompt_hash, model_used, updated_at FROM metal_estimates`).
		WithArgs("batch-1").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetMetalEstimate(context.Background(), "batch-1")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertMetalEstimate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO metal_estimates .* ON CONFLICT`).
		WithArgs("batch-1", pgxmock.AnyArg(), "hash1", "test-model", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertMetalEstimate(context.Background(), "batch-1", &model.MetalEstimate{
		Composition:       map[string]model.MetalComposition{},
		AggregateTotalsKg: map[string]float64{"gold": 0.1},
		Uncertainty:       map[string]model.Confidence{},
		PromptHash:        "hash1",
		ModelUsed:         "test-model",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdatePipelineStep(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	t.Run("single jsonb_set update", func(t *testing.T) {
		mock.ExpectExec(`UPDATE pipeline_runs`).
			WithArgs("ESTIMATING_METALS", "in_progress", "ESTIMATING_METALS",
				pgxmock.AnyArg(), pgxmock.AnyArg(), "run-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := s.UpdatePipelineStep(context.Background(), "run-1", model.StepEstimatingMetals, model.StepResult{
			Status: model.StatusInProgress,
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing run", func(t *testing.T) {
		mock.ExpectExec(`UPDATE pipeline_runs`).
			WithArgs("ESTIMATING_METALS", "in_progress", "ESTIMATING_METALS",
				pgxmock.AnyArg(), pgxmock.AnyArg(), "nope").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := s.UpdatePipelineStep(context.Background(), "nope", model.StepEstimatingMetals, model.StepResult{
			Status: model.StatusInProgress,
		})
		assert.True(t, IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_SetDetection_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE image_assets SET detection`).
		WithArgs(pgxmock.AnyArg(), "missing-asset").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.SetDetection(context.Background(), "missing-asset", &model.DetectionOutput{})
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceInventory(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM inventory_items`).
		WithArgs("batch-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`INSERT INTO inventory_items`).
		WithArgs(pgxmock.AnyArg(), "batch-1", "laptops", "laptop", "", "",
			10.0, "count", "high").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.ReplaceInventory(context.Background(), "batch-1", []model.InventoryItem{
		{RawLabel: "laptops", NormalizedType: model.TypeLaptop, Quantity: 10, Unit: model.UnitCount, Confidence: model.ConfidenceHigh},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reclaimworks/assay-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteBatchLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("create defaults location and metadata", func(t *testing.T) {
		batch, err := s.CreateBatch(ctx, "", nil)
		require.NoError(t, err)
		assert.NotEmpty(t, batch.ID)
		assert.Equal(t, "USA", batch.Location)
		assert.NotNil(t, batch.Metadata)
	})

	t.Run("round trip with children", func(t *testing.T) {
		batch, err := s.CreateBatch(ctx, "Berlin", map[string]any{"source": "warehouse-7"})
		require.NoError(t, err)

		asset, err := s.AddImageAsset(ctx, batch.ID, "pile.jpg", "batches/x/images/pile.jpg", "image/jpeg", 1234)
		require.NoError(t, err)

		_, err = s.AddTextEntry(ctx, batch.ID, "laptops - 10")
		require.NoError(t, err)

		det := &model.DetectionOutput{
			SummaryLabels: []model.DetectionLabel{{Label: "cpu", Count: 3, ConfidenceMean: 0.9}},
			ModelVersion:  "stub-v1",
		}
		require.NoError(t, s.SetDetection(ctx, asset.ID, det))

		got, err := s.GetBatch(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, "Berlin", got.Location)
		assert.Equal(t, "warehouse-7", got.Metadata["source"])
		require.Len(t, got.ImageAssets, 1)
		require.NotNil(t, got.ImageAssets[0].Detection)
		assert.Equal(t, "stub-v1", got.ImageAssets[0].Detection.ModelVersion)
		require.Len(t, got.TextEntries, 1)
		assert.Equal(t, "laptops - 10", got.TextEntries[0].RawText)
	})

	t.Run("missing batch", func(t *testing.T) {
		_, err := s.GetBatch(ctx, "nope")
		assert.True(t, IsNotFound(err))
	})

	t.Run("set detection on missing asset", func(t *testing.T) {
		err := s.SetDetection(ctx, "nope", &model.DetectionOutput{})
		assert.True(t, IsNotFound(err))
	})
}

func TestSQLiteReplaceInventory(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	batch, err := s.CreateBatch(ctx, "", nil)
	require.NoError(t, err)

	first := []model.InventoryItem{
		{RawLabel: "laptops", NormalizedType: model.TypeLaptop, Quantity: 10, Unit: model.UnitCount, Confidence: model.ConfidenceHigh},
		{RawLabel: "cables", NormalizedType: model.TypeCable, Quantity: 2.5, Unit: model.UnitKg, Confidence: model.ConfidenceHigh},
	}
	require.NoError(t, s.ReplaceInventory(ctx, batch.ID, first))

	items, err := s.GetInventory(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "laptops", items[0].RawLabel)
	assert.NotEmpty(t, items[0].ID)

	// Replacement swaps, never appends.
	second := []model.InventoryItem{
		{RawLabel: "phones", NormalizedType: model.TypeSmartphone, Quantity: 5, Unit: model.UnitCount, Confidence: model.ConfidenceMedium},
	}
	require.NoError(t, s.ReplaceInventory(ctx, batch.ID, second))

	items, err = s.GetInventory(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "phones", items[0].RawLabel)
	assert.Equal(t, model.TypeSmartphone, items[0].NormalizedType)
}

func TestSQLiteRuns(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	batch, err := s.CreateBatch(ctx, "", nil)
	require.NoError(t, err)

	run, err := s.CreateRun(ctx, batch.ID, map[string]string{"detector": "stub-v1"})
	require.NoError(t, err)
	assert.Equal(t, model.StepDetecting, run.CurrentStep)
	assert.Equal(t, model.StatusPending, run.Status)

	t.Run("step update moves current step and status", func(t *testing.T) {
		err := s.UpdatePipelineStep(ctx, run.ID, model.StepDetecting, model.StepResult{
			Status:   model.StatusCompleted,
			Output:   map[string]any{"imagesProcessed": 2},
			Duration: 42,
		})
		require.NoError(t, err)

		err = s.UpdatePipelineStep(ctx, run.ID, model.StepParsingTextInventory, model.StepResult{
			Status: model.StatusInProgress,
		})
		require.NoError(t, err)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StepParsingTextInventory, got.CurrentStep)
		assert.Equal(t, model.StatusInProgress, got.Status)
		require.Contains(t, got.StepResults, model.StepDetecting)
		assert.Equal(t, model.StatusCompleted, got.StepResults[model.StepDetecting].Status)
		assert.Equal(t, int64(42), got.StepResults[model.StepDetecting].Duration)
		assert.False(t, got.StepResults[model.StepDetecting].Timestamp.IsZero())
		assert.Equal(t, map[string]string{"detector": "stub-v1"}, got.ModelVersions)
	})

	t.Run("list newest first", func(t *testing.T) {
		time.Sleep(10 * time.Millisecond)
		second, err := s.CreateRun(ctx, batch.ID, nil)
		require.NoError(t, err)

		runs, err := s.ListRuns(ctx, batch.ID)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, second.ID, runs[0].ID)
		assert.Equal(t, run.ID, runs[1].ID)
	})

	t.Run("missing run", func(t *testing.T) {
		_, err := s.GetRun(ctx, "nope")
		assert.True(t, IsNotFound(err))

		err = s.UpdatePipelineStep(ctx, "nope", model.StepDetecting, model.StepResult{Status: model.StatusCompleted})
		assert.True(t, IsNotFound(err))
	})
}

func TestSQLiteSingletons(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	batch, err := s.CreateBatch(ctx, "", nil)
	require.NoError(t, err)

	t.Run("not generated yet", func(t *testing.T) {
		_, err := s.GetMetalEstimate(ctx, batch.ID)
		assert.True(t, IsNotFound(err))
		_, err = s.GetPriceSnapshot(ctx, batch.ID)
		assert.True(t, IsNotFound(err))
		_, err = s.GetExtractionPlan(ctx, batch.ID)
		assert.True(t, IsNotFound(err))
		_, err = s.GetInvestorReport(ctx, batch.ID)
		assert.True(t, IsNotFound(err))
	})

	t.Run("upsert overwrites", func(t *testing.T) {
		est := &model.MetalEstimate{
			Composition:       map[string]model.MetalComposition{"laptop": {Grams: 100, Confidence: model.ConfidenceHigh}},
			AggregateTotalsKg: map[string]float64{"gold": 0.1},
			Uncertainty:       map[string]model.Confidence{"aggregate": model.ConfidenceMedium},
			PromptHash:        "abc123",
			ModelUsed:         "test-model",
		}
		require.NoError(t, s.UpsertMetalEstimate(ctx, batch.ID, est))

		est.AggregateTotalsKg["gold"] = 0.2
		est.PromptHash = "def456"
		require.NoError(t, s.UpsertMetalEstimate(ctx, batch.ID, est))

		got, err := s.GetMetalEstimate(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, 0.2, got.AggregateTotalsKg["gold"])
		assert.Equal(t, "def456", got.PromptHash)
		assert.Equal(t, "test-model", got.ModelUsed)
		assert.Equal(t, batch.ID, got.BatchID)
		assert.False(t, got.UpdatedAt.IsZero())
	})

	t.Run("report round trip", func(t *testing.T) {
		report := &model.InvestorReport{
			ExecutiveSummary: model.ExecutiveSummary{
				GrossValueUSD: 8000,
				TotalCostUSD:  4200,
				NetProfitUSD:  3800,
				Verdict:       model.VerdictViable,
				Confidence:    model.ConfidenceMedium,
			},
		}
		require.NoError(t, s.UpsertInvestorReport(ctx, batch.ID, report))

		got, err := s.GetInvestorReport(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, model.VerdictViable, got.ExecutiveSummary.Verdict)
		assert.Equal(t, 3800.0, got.ExecutiveSummary.NetProfitUSD)
	})
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/reclaimworks/assay-cli/internal/model"
)

// pgxPool is the subset of pgxpool.Pool the store needs. pgxmock
// satisfies it for tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool pgxPool
}

// NewPostgres connects to the given database URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS batches (
	id         TEXT PRIMARY KEY,
	location   TEXT NOT NULL,
	metadata   JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS image_assets (
	id          TEXT PRIMARY KEY,
	batch_id    TEXT NOT NULL REFERENCES batches(id),
	filename    TEXT NOT NULL,
	storage_key TEXT NOT NULL,
	mime_type   TEXT NOT NULL,
	size        BIGINT NOT NULL,
	detection   JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS text_entries (
	id           TEXT PRIMARY KEY,
	batch_id     TEXT NOT NULL REFERENCES batches(id),
	raw_text     TEXT NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS inventory_items (
	id              TEXT PRIMARY KEY,
	batch_id        TEXT NOT NULL REFERENCES batches(id),
	raw_label       TEXT NOT NULL,
	normalized_type TEXT NOT NULL,
	manufacturer    TEXT,
	model           TEXT,
	quantity        DOUBLE PRECISION NOT NULL,
	unit            TEXT NOT NULL,
	confidence      TEXT NOT NULL,
	position        BIGSERIAL
);

CREATE TABLE IF NOT EXISTS pipeline_runs (
	id             TEXT PRIMARY KEY,
	batch_id       TEXT NOT NULL REFERENCES batches(id),
	current_step   TEXT NOT NULL,
	status         TEXT NOT NULL,
	step_results   JSONB NOT NULL DEFAULT '{}',
	model_versions JSONB NOT NULL DEFAULT '{}',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS metal_estimates (
	batch_id    TEXT PRIMARY KEY REFERENCES batches(id),
	data        JSONB NOT NULL,
	prompt_hash TEXT,
	model_used  TEXT,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS price_snapshots (
	batch_id    TEXT PRIMARY KEY REFERENCES batches(id),
	data        JSONB NOT NULL,
	prompt_hash TEXT,
	model_used  TEXT,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS extraction_plans (
	batch_id    TEXT PRIMARY KEY REFERENCES batches(id),
	data        JSONB NOT NULL,
	prompt_hash TEXT,
	model_used  TEXT,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS investor_reports (
	batch_id   TEXT PRIMARY KEY REFERENCES batches(id),
	report     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_image_assets_batch_id ON image_assets(batch_id);
CREATE INDEX IF NOT EXISTS idx_text_entries_batch_id ON text_entries(batch_id);
CREATE INDEX IF NOT EXISTS idx_inventory_items_batch_id ON inventory_items(batch_id);
CREATE INDEX IF NOT EXISTS idx_pipeline_runs_batch_id ON pipeline_runs(batch_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateBatch(ctx context.Context, location string, metadata map[string]any) (*model.Batch, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	if location == "" {
		location = "USA"
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal metadata")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO batches (id, location, metadata, created_at) VALUES ($1, $2, $3, $4)`,
		id, location, metaJSON, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert batch")
	}

	return &model.Batch{
		ID:        id,
		Location:  location,
		Metadata:  metadata,
		CreatedAt: now,
	}, nil
}

func (s *PostgresStore) GetBatch(ctx context.Context, batchID string) (*model.Batch, error) {
	var b model.Batch
	var metaJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, location, metadata, created_at FROM batches WHERE id = $1`,
		batchID,
	).Scan(&b.ID, &b.Location, &metaJSON, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "batch", ID: batchID}
		}
		return nil, eris.Wrapf(err, "postgres: get batch %s", batchID)
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &b.Metadata); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal batch metadata")
		}
	}

	assets, err := s.listImageAssets(ctx, batchID)
	if err != nil {
		return nil, err
	}
	b.ImageAssets = assets

	entries, err := s.listTextEntries(ctx, batchID)
	if err != nil {
		return nil, err
	}
	b.TextEntries = entries

	inventory, err := s.GetInventory(ctx, batchID)
	if err != nil {
		return nil, err
	}
	b.Inventory = inventory

	if est, err := s.GetMetalEstimate(ctx, batchID); err == nil {
		b.MetalEstimate = est
	} else if !IsNotFound(err) {
		return nil, err
	}
	if snap, err := s.GetPriceSnapshot(ctx, batchID); err == nil {
		b.PriceSnapshot = snap
	} else if !IsNotFound(err) {
		return nil, err
	}
	if plan, err := s.GetExtractionPlan(ctx, batchID); err == nil {
		b.ExtractionPlan = plan
	} else if !IsNotFound(err) {
		return nil, err
	}
	if report, err := s.GetInvestorReport(ctx, batchID); err == nil {
		b.InvestorReport = report
	} else if !IsNotFound(err) {
		return nil, err
	}

	runs, err := s.ListRuns(ctx, batchID)
	if err != nil {
		return nil, err
	}
	b.Runs = runs

	return &b, nil
}

func (s *PostgresStore) AddImageAsset(ctx context.Context, batchID, filename, storageKey, mimeType string, size int64) (*model.ImageAsset, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO image_assets (id, batch_id, filename, storage_key, mime_type, size, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, batchID, filename, storageKey, mimeType, size, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert image asset for batch %s", batchID)
	}

	return &model.ImageAsset{
		ID:         id,
		BatchID:    batchID,
		Filename:   filename,
		StorageKey: storageKey,
		MimeType:   mimeType,
		Size:       size,
		CreatedAt:  now,
	}, nil
}

func (s *PostgresStore) AddTextEntry(ctx context.Context, batchID, rawText string) (*model.TextInventoryEntry, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO text_entries (id, batch_id, raw_text, submitted_at) VALUES ($1, $2, $3, $4)`,
		id, batchID, rawText, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert text entry for batch %s", batchID)
	}

	return &model.TextInventoryEntry{
		ID:          id,
		BatchID:     batchID,
		RawText:     rawText,
		SubmittedAt: now,
	}, nil
}

func (s *PostgresStore) SetDetection(ctx context.Context, imageAssetID string, det *model.DetectionOutput) error {
	detJSON, err := json.Marshal(det)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal detection")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE image_assets SET detection = $1 WHERE id = $2`,
		detJSON, imageAssetID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set detection %s", imageAssetID)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "image_asset", ID: imageAssetID}
	}
	return nil
}

func (s *PostgresStore) ReplaceInventory(ctx context.Context, batchID string, items []model.InventoryItem) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace inventory")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM inventory_items WHERE batch_id = $1`, batchID); err != nil {
		return eris.Wrapf(err, "postgres: clear inventory for batch %s", batchID)
	}

	for _, item := range items {
		id := item.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO inventory_items (id, batch_id, raw_label, normalized_type, manufacturer, model, quantity, unit, confidence)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			id, batchID, item.RawLabel, string(item.NormalizedType), item.Manufacturer, item.Model,
			item.Quantity, string(item.Unit), string(item.Confidence),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert inventory item for batch %s", batchID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace inventory")
}

func (s *PostgresStore) GetInventory(ctx context.Context, batchID string) ([]model.InventoryItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, raw_label, normalized_type, manufacturer, model, quantity, unit, confidence
		 FROM inventory_items WHERE batch_id = $1 ORDER BY position`,
		batchID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get inventory for batch %s", batchID)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var item model.InventoryItem
		var manufacturer, mdl *string
		if err := rows.Scan(&item.ID, &item.RawLabel, &item.NormalizedType, &manufacturer, &mdl,
			&item.Quantity, &item.Unit, &item.Confidence); err != nil {
			return nil, eris.Wrap(err, "postgres: scan inventory item")
		}
		if manufacturer != nil {
			item.Manufacturer = *manufacturer
		}
		if mdl != nil {
			item.Model = *mdl
		}
		items = append(items, item)
	}
	return items, eris.Wrap(rows.Err(), "postgres: iterate inventory")
}

func (s *PostgresStore) CreateRun(ctx context.Context, batchID string, modelVersions map[string]string) (*model.PipelineRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	if modelVersions == nil {
		modelVersions = map[string]string{}
	}
	versionsJSON, err := json.Marshal(modelVersions)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal model versions")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO pipeline_runs (id, batch_id, current_step, status, step_results, model_versions, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, '{}', $5, $6, $7)`,
		id, batchID, string(model.StepDetecting), string(model.StatusPending), versionsJSON, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert run for batch %s", batchID)
	}

	return &model.PipelineRun{
		ID:            id,
		BatchID:       batchID,
		CurrentStep:   model.StepDetecting,
		Status:        model.StatusPending,
		StepResults:   map[model.StepName]model.StepResult{},
		ModelVersions: modelVersions,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.PipelineRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, batch_id, current_step, status, step_results, model_versions, created_at, updated_at
		 FROM pipeline_runs WHERE id = $1`,
		runID,
	)
	run, err := scanPgRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "pipeline_run", ID: runID}
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, batchID string) ([]model.PipelineRun, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, batch_id, current_step, status, step_results, model_versions, created_at, updated_at
		 FROM pipeline_runs WHERE batch_id = $1 ORDER BY created_at DESC, id`,
		batchID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list runs for batch %s", batchID)
	}
	defer rows.Close()

	var runs []model.PipelineRun
	for rows.Next() {
		run, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func (s *PostgresStore) UpdatePipelineStep(ctx context.Context, runID string, step model.StepName, result model.StepResult) error {
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now().UTC()
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal step result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE pipeline_runs
		 SET current_step = $1,
		     status = $2,
		     step_results = jsonb_set(step_results, ARRAY[$3::text], $4::jsonb, true),
		     updated_at = $5
		 WHERE id = $6`,
		string(step), string(result.Status), string(step), resultJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "pipeline_run", ID: runID}
	}
	return nil
}

func (s *PostgresStore) UpsertMetalEstimate(ctx context.Context, batchID string, est *model.MetalEstimate) error {
	return s.upsertSingleton(ctx, "metal_estimates", batchID, est, est.PromptHash, est.ModelUsed)
}

func (s *PostgresStore) UpsertPriceSnapshot(ctx context.Context, batchID string, snap *model.PriceSnapshot) error {
	return s.upsertSingleton(ctx, "price_snapshots", batchID, snap, snap.PromptHash, snap.ModelUsed)
}

func (s *PostgresStore) UpsertExtractionPlan(ctx context.Context, batchID string, plan *model.ExtractionPlan) error {
	return s.upsertSingleton(ctx, "extraction_plans", batchID, plan, plan.PromptHash, plan.ModelUsed)
}

func (s *PostgresStore) upsertSingleton(ctx context.Context, table, batchID string, data any, promptHash, modelUsed string) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal %s", table)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+table+` (batch_id, data, prompt_hash, model_used, updated_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (batch_id) DO UPDATE SET
		   data = EXCLUDED.data,
		   prompt_hash = EXCLUDED.prompt_hash,
		   model_used = EXCLUDED.model_used,
		   updated_at = EXCLUDED.updated_at`,
		batchID, dataJSON, promptHash, modelUsed, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert %s for batch %s", table, batchID)
}

func (s *PostgresStore) UpsertInvestorReport(ctx context.Context, batchID string, report *model.InvestorReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO investor_reports (batch_id, report, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (batch_id) DO UPDATE SET report = EXCLUDED.report, updated_at = EXCLUDED.updated_at`,
		batchID, reportJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert report for batch %s", batchID)
}

func (s *PostgresStore) GetMetalEstimate(ctx context.Context, batchID string) (*model.MetalEstimate, error) {
	var est model.MetalEstimate
	if err := s.getSingleton(ctx, "metal_estimates", "metal_estimate", batchID, &est,
		&est.PromptHash, &est.ModelUsed, &est.UpdatedAt); err != nil {
		return nil, err
	}
	est.BatchID = batchID
	return &est, nil
}

func (s *PostgresStore) GetPriceSnapshot(ctx context.Context, batchID string) (*model.PriceSnapshot, error) {
	var snap model.PriceSnapshot
	if err := s.getSingleton(ctx, "price_snapshots", "price_snapshot", batchID, &snap,
		&snap.PromptHash, &snap.ModelUsed, &snap.UpdatedAt); err != nil {
		return nil, err
	}
	snap.BatchID = batchID
	return &snap, nil
}

func (s *PostgresStore) GetExtractionPlan(ctx context.Context, batchID string) (*model.ExtractionPlan, error) {
	var plan model.ExtractionPlan
	if err := s.getSingleton(ctx, "extraction_plans", "extraction_plan", batchID, &plan,
		&plan.PromptHash, &plan.ModelUsed, &plan.UpdatedAt); err != nil {
		return nil, err
	}
	plan.BatchID = batchID
	return &plan, nil
}

func (s *PostgresStore) getSingleton(ctx context.Context, table, entity, batchID string, dest any, promptHash, modelUsed *string, updatedAt *time.Time) error {
	row := s.pool.QueryRow(ctx,
		`SELECT data, prompt_hash, model_used, updated_at FROM `+table+` WHERE batch_id = $1`,
		batchID,
	)

	var dataJSON []byte
	var ph, mu *string
	if err := row.Scan(&dataJSON, &ph, &mu, updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Entity: entity, ID: batchID}
		}
		return eris.Wrapf(err, "postgres: get %s for batch %s", entity, batchID)
	}
	if err := json.Unmarshal(dataJSON, dest); err != nil {
		return eris.Wrapf(err, "postgres: unmarshal %s", entity)
	}
	if ph != nil {
		*promptHash = *ph
	}
	if mu != nil {
		*modelUsed = *mu
	}
	return nil
}

func (s *PostgresStore) GetInvestorReport(ctx context.Context, batchID string) (*model.InvestorReport, error) {
	var reportJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT report FROM investor_reports WHERE batch_id = $1`,
		batchID,
	).Scan(&reportJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "investor_report", ID: batchID}
		}
		return nil, eris.Wrapf(err, "postgres: get report for batch %s", batchID)
	}

	var report model.InvestorReport
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal report")
	}
	return &report, nil
}

func (s *PostgresStore) listImageAssets(ctx context.Context, batchID string) ([]model.ImageAsset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, batch_id, filename, storage_key, mime_type, size, detection, created_at
		 FROM image_assets WHERE batch_id = $1 ORDER BY created_at, id`,
		batchID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list image assets for batch %s", batchID)
	}
	defer rows.Close()

	var assets []model.ImageAsset
	for rows.Next() {
		var a model.ImageAsset
		var detJSON []byte
		if err := rows.Scan(&a.ID, &a.BatchID, &a.Filename, &a.StorageKey, &a.MimeType, &a.Size, &detJSON, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan image asset")
		}
		if len(detJSON) > 0 {
			var det model.DetectionOutput
			if err := json.Unmarshal(detJSON, &det); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal detection")
			}
			a.Detection = &det
		}
		assets = append(assets, a)
	}
	return assets, eris.Wrap(rows.Err(), "postgres: iterate image assets")
}

func (s *PostgresStore) listTextEntries(ctx context.Context, batchID string) ([]model.TextInventoryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, batch_id, raw_text, submitted_at FROM text_entries WHERE batch_id = $1 ORDER BY submitted_at, id`,
		batchID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list text entries for batch %s", batchID)
	}
	defer rows.Close()

	var entries []model.TextInventoryEntry
	for rows.Next() {
		var e model.TextInventoryEntry
		if err := rows.Scan(&e.ID, &e.BatchID, &e.RawText, &e.SubmittedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan text entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: iterate text entries")
}

func scanPgRun(row pgx.Row) (*model.PipelineRun, error) {
	var run model.PipelineRun
	var resultsJSON, versionsJSON []byte
	if err := row.Scan(&run.ID, &run.BatchID, &run.CurrentStep, &run.Status,
		&resultsJSON, &versionsJSON, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}

	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &run.StepResults); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal step results")
		}
	}
	if len(versionsJSON) > 0 {
		if err := json.Unmarshal(versionsJSON, &run.ModelVersions); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal model versions")
		}
	}
	return &run, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/reclaimworks/assay-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS batches (
	id         TEXT PRIMARY KEY,
	location   TEXT NOT NULL,
	metadata   TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS image_assets (
	id          TEXT PRIMARY KEY,
	batch_id    TEXT NOT NULL REFERENCES batches(id),
	filename    TEXT NOT NULL,
	storage_key TEXT NOT NULL,
	mime_type   TEXT NOT NULL,
	size        INTEGER NOT NULL,
	detection   TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS text_entries (
	id           TEXT PRIMARY KEY,
	batch_id     TEXT NOT NULL REFERENCES batches(id),
	raw_text     TEXT NOT NULL,
	submitted_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS inventory_items (
	id              TEXT PRIMARY KEY,
	batch_id        TEXT NOT NULL REFERENCES batches(id),
	raw_label       TEXT NOT NULL,
	normalized_type TEXT NOT NULL,
	manufacturer    TEXT,
	model           TEXT,
	quantity        REAL NOT NULL,
	unit            TEXT NOT NULL,
	confidence      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pipeline_runs (
	id             TEXT PRIMARY KEY,
	batch_id       TEXT NOT NULL REFERENCES batches(id),
	current_step   TEXT NOT NULL,
	status         TEXT NOT NULL,
	step_results   TEXT NOT NULL DEFAULT '{}',
	model_versions TEXT NOT NULL DEFAULT '{}',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS metal_estimates (
	batch_id    TEXT PRIMARY KEY REFERENCES batches(id),
	data        TEXT NOT NULL,
	prompt_hash TEXT,
	model_used  TEXT,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS price_snapshots (
	batch_id    TEXT PRIMARY KEY REFERENCES batches(id),
	data        TEXT NOT NULL,
	prompt_hash TEXT,
	model_used  TEXT,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS extraction_plans (
	batch_id    TEXT PRIMARY KEY REFERENCES batches(id),
	data        TEXT NOT NULL,
	prompt_hash TEXT,
	model_used  TEXT,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS investor_reports (
	batch_id   TEXT PRIMARY KEY REFERENCES batches(id),
	report     TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_image_assets_batch_id ON image_assets(batch_id);
CREATE INDEX IF NOT EXISTS idx_text_entries_batch_id ON text_entries(batch_id);
CREATE INDEX IF NOT EXISTS idx_inventory_items_batch_id ON inventory_items(batch_id);
CREATE INDEX IF NOT EXISTS idx_pipeline_runs_batch_id ON pipeline_runs(batch_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateBatch(ctx context.Context, location string, metadata map[string]any) (*model.Batch, error) {
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
		return nil, eris.Wrap(err, "sqlite: marshal metadata")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO batches (id, location, metadata, created_at) VALUES (?, ?, ?, ?)`,
		id, location, string(metaJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert batch")
	}

	return &model.Batch{
		ID:        id,
		Location:  location,
		Metadata:  metadata,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) GetBatch(ctx context.Context, batchID string) (*model.Batch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, location, metadata, created_at FROM batches WHERE id = ?`,
		batchID,
	)

	var b model.Batch
	var metaJSON sql.NullString
	if err := row.Scan(&b.ID, &b.Location, &metaJSON, &b.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, &NotFoundError{Entity: "batch", ID: batchID}
		}
		return nil, eris.Wrapf(err, "sqlite: get batch %s", batchID)
	}
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &b.Metadata); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal batch metadata")
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

func (s *SQLiteStore) AddImageAsset(ctx context.Context, batchID, filename, storageKey, mimeType string, size int64) (*model.ImageAsset, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO image_assets (id, batch_id, filename, storage_key, mime_type, size, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, batchID, filename, storageKey, mimeType, size, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert image asset for batch %s", batchID)
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

func (s *SQLiteStore) AddTextEntry(ctx context.Context, batchID, rawText string) (*model.TextInventoryEntry, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO text_entries (id, batch_id, raw_text, submitted_at) VALUES (?, ?, ?, ?)`,
		id, batchID, rawText, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert text entry for batch %s", batchID)
	}

	return &model.TextInventoryEntry{
		ID:          id,
		BatchID:     batchID,
		RawText:     rawText,
		SubmittedAt: now,
	}, nil
}

func (s *SQLiteStore) SetDetection(ctx context.Context, imageAssetID string, det *model.DetectionOutput) error {
	detJSON, err := json.Marshal(det)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal detection")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE image_assets SET detection = ? WHERE id = ?`,
		string(detJSON), imageAssetID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set detection %s", imageAssetID)
	}
	return checkRowsAffected(res, "image_asset", imageAssetID)
}

func (s *SQLiteStore) ReplaceInventory(ctx context.Context, batchID string, items []model.InventoryItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace inventory")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_items WHERE batch_id = ?`, batchID); err != nil {
		return eris.Wrapf(err, "sqlite: clear inventory for batch %s", batchID)
	}

	for _, item := range items {
		id := item.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO inventory_items (id, batch_id, raw_label, normalized_type, manufacturer, model, quantity, unit, confidence)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, batchID, item.RawLabel, string(item.NormalizedType), item.Manufacturer, item.Model,
			item.Quantity, string(item.Unit), string(item.Confidence),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert inventory item for batch %s", batchID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace inventory")
}

func (s *SQLiteStore) GetInventory(ctx context.Context, batchID string) ([]model.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, raw_label, normalized_type, manufacturer, model, quantity, unit, confidence
		 FROM inventory_items WHERE batch_id = ? ORDER BY rowid`,
		batchID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get inventory for batch %s", batchID)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var item model.InventoryItem
		var manufacturer, mdl sql.NullString
		if err := rows.Scan(&item.ID, &item.RawLabel, &item.NormalizedType, &manufacturer, &mdl,
			&item.Quantity, &item.Unit, &item.Confidence); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan inventory item")
		}
		item.Manufacturer = manufacturer.String
		item.Model = mdl.String
		items = append(items, item)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: iterate inventory")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, batchID string, modelVersions map[string]string) (*model.PipelineRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	if modelVersions == nil {
		modelVersions = map[string]string{}
	}
	versionsJSON, err := json.Marshal(modelVersions)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal model versions")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pipeline_runs (id, batch_id, current_step, status, step_results, model_versions, created_at, updated_at)
		 VALUES (?, ?, ?, ?, '{}', ?, ?, ?)`,
		id, batchID, string(model.StepDetecting), string(model.StatusPending), string(versionsJSON), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert run for batch %s", batchID)
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

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.PipelineRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, batch_id, current_step, status, step_results, model_versions, created_at, updated_at
		 FROM pipeline_runs WHERE id = ?`,
		runID,
	)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "pipeline_run", ID: runID}
	}
	return run, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, batchID string) ([]model.PipelineRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, batch_id, current_step, status, step_results, model_versions, created_at, updated_at
		 FROM pipeline_runs WHERE batch_id = ? ORDER BY created_at DESC, id`,
		batchID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list runs for batch %s", batchID)
	}
	defer rows.Close()

	var runs []model.PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) UpdatePipelineStep(ctx context.Context, runID string, step model.StepName, result model.StepResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin step update")
	}
	defer tx.Rollback()

	var resultsJSON string
	row := tx.QueryRowContext(ctx, `SELECT step_results FROM pipeline_runs WHERE id = ?`, runID)
	if err := row.Scan(&resultsJSON); err != nil {
		if err == sql.ErrNoRows {
			return &NotFoundError{Entity: "pipeline_run", ID: runID}
		}
		return eris.Wrapf(err, "sqlite: load step results %s", runID)
	}

	results := map[model.StepName]model.StepResult{}
	if resultsJSON != "" {
		if err := json.Unmarshal([]byte(resultsJSON), &results); err != nil {
			return eris.Wrap(err, "sqlite: unmarshal step results")
		}
	}
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now().UTC()
	}
	results[step] = result

	updated, err := json.Marshal(results)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal step results")
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE pipeline_runs SET current_step = ?, status = ?, step_results = ?, updated_at = ? WHERE id = ?`,
		string(step), string(result.Status), string(updated), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run %s", runID)
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit step update")
}

func (s *SQLiteStore) UpsertMetalEstimate(ctx context.Context, batchID string, est *model.MetalEstimate) error {
	return s.upsertSingleton(ctx, "metal_estimates", batchID, est, est.PromptHash, est.ModelUsed)
}

func (s *SQLiteStore) UpsertPriceSnapshot(ctx context.Context, batchID string, snap *model.PriceSnapshot) error {
	return s.upsertSingleton(ctx, "price_snapshots", batchID, snap, snap.PromptHash, snap.ModelUsed)
}

func (s *SQLiteStore) UpsertExtractionPlan(ctx context.Context, batchID string, plan *model.ExtractionPlan) error {
	return s.upsertSingleton(ctx, "extraction_plans", batchID, plan, plan.PromptHash, plan.ModelUsed)
}

func (s *SQLiteStore) upsertSingleton(ctx context.Context, table, batchID string, data any, promptHash, modelUsed string) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal %s", table)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (batch_id, data, prompt_hash, model_used, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(batch_id) DO UPDATE SET
		   data = excluded.data,
		   prompt_hash = excluded.prompt_hash,
		   model_used = excluded.model_used,
		   updated_at = excluded.updated_at`,
		batchID, string(dataJSON), promptHash, modelUsed, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert %s for batch %s", table, batchID)
}

func (s *SQLiteStore) UpsertInvestorReport(ctx context.Context, batchID string, report *model.InvestorReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO investor_reports (batch_id, report, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(batch_id) DO UPDATE SET report = excluded.report, updated_at = excluded.updated_at`,
		batchID, string(reportJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert report for batch %s", batchID)
}

func (s *SQLiteStore) GetMetalEstimate(ctx context.Context, batchID string) (*model.MetalEstimate, error) {
	var est model.MetalEstimate
	if err := s.getSingleton(ctx, "metal_estimates", "metal_estimate", batchID, &est,
		&est.PromptHash, &est.ModelUsed, &est.UpdatedAt); err != nil {
		return nil, err
	}
	est.BatchID = batchID
	return &est, nil
}

func (s *SQLiteStore) GetPriceSnapshot(ctx context.Context, batchID string) (*model.PriceSnapshot, error) {
	var snap model.PriceSnapshot
	if err := s.getSingleton(ctx, "price_snapshots", "price_snapshot", batchID, &snap,
		&snap.PromptHash, &snap.ModelUsed, &snap.UpdatedAt); err != nil {
		return nil, err
	}
	snap.BatchID = batchID
	return &snap, nil
}

func (s *SQLiteStore) GetExtractionPlan(ctx context.Context, batchID string) (*model.ExtractionPlan, error) {
	var plan model.ExtractionPlan
	if err := s.getSingleton(ctx, "extraction_plans", "extraction_plan", batchID, &plan,
		&plan.PromptHash, &plan.ModelUsed, &plan.UpdatedAt); err != nil {
		return nil, err
	}
	plan.BatchID = batchID
	return &plan, nil
}

func (s *SQLiteStore) getSingleton(ctx context.Context, table, entity, batchID string, dest any, promptHash, modelUsed *string, updatedAt *time.Time) error {
	row := s.db.QueryRowContext(ctx,
		`SELECT data, prompt_hash, model_used, updated_at FROM `+table+` WHERE batch_id = ?`,
		batchID,
	)

	var dataJSON string
	var ph, mu sql.NullString
	if err := row.Scan(&dataJSON, &ph, &mu, updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return &NotFoundError{Entity: entity, ID: batchID}
		}
		return eris.Wrapf(err, "sqlite: get %s for batch %s", entity, batchID)
	}
	if err := json.Unmarshal([]byte(dataJSON), dest); err != nil {
		return eris.Wrapf(err, "sqlite: unmarshal %s", entity)
	}
	*promptHash = ph.String
	*modelUsed = mu.String
	return nil
}

func (s *SQLiteStore) GetInvestorReport(ctx context.Context, batchID string) (*model.InvestorReport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT report FROM investor_reports WHERE batch_id = ?`,
		batchID,
	)

	var reportJSON string
	if err := row.Scan(&reportJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, &NotFoundError{Entity: "investor_report", ID: batchID}
		}
		return nil, eris.Wrapf(err, "sqlite: get report for batch %s", batchID)
	}

	var report model.InvestorReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal report")
	}
	return &report, nil
}

func (s *SQLiteStore) listImageAssets(ctx context.Context, batchID string) ([]model.ImageAsset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, batch_id, filename, storage_key, mime_type, size, detection, created_at
		 FROM image_assets WHERE batch_id = ? ORDER BY created_at, id`,
		batchID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list image assets for batch %s", batchID)
	}
	defer rows.Close()

	var assets []model.ImageAsset
	for rows.Next() {
		var a model.ImageAsset
		var detJSON sql.NullString
		if err := rows.Scan(&a.ID, &a.BatchID, &a.Filename, &a.StorageKey, &a.MimeType, &a.Size, &detJSON, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan image asset")
		}
		if detJSON.Valid && detJSON.String != "" {
			var det model.DetectionOutput
			if err := json.Unmarshal([]byte(detJSON.String), &det); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal detection")
			}
			a.Detection = &det
		}
		assets = append(assets, a)
	}
	return assets, eris.Wrap(rows.Err(), "sqlite: iterate image assets")
}

func (s *SQLiteStore) listTextEntries(ctx context.Context, batchID string) ([]model.TextInventoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, batch_id, raw_text, submitted_at FROM text_entries WHERE batch_id = ? ORDER BY submitted_at, id`,
		batchID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list text entries for batch %s", batchID)
	}
	defer rows.Close()

	var entries []model.TextInventoryEntry
	for rows.Next() {
		var e model.TextInventoryEntry
		if err := rows.Scan(&e.ID, &e.BatchID, &e.RawText, &e.SubmittedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan text entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: iterate text entries")
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.PipelineRun, error) {
	var run model.PipelineRun
	var resultsJSON, versionsJSON string
	if err := row.Scan(&run.ID, &run.BatchID, &run.CurrentStep, &run.Status,
		&resultsJSON, &versionsJSON, &run.CreatedAt, &run.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if resultsJSON != "" {
		if err := json.Unmarshal([]byte(resultsJSON), &run.StepResults); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal step results")
		}
	}
	if versionsJSON != "" {
		if err := json.Unmarshal([]byte(versionsJSON), &run.ModelVersions); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal model versions")
		}
	}
	return &run, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

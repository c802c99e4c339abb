package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reclaimworks/assay-cli/internal/detect"
	"github.com/reclaimworks/assay-cli/internal/pipeline"
	"github.com/reclaimworks/assay-cli/internal/storage"
	"github.com/reclaimworks/assay-cli/internal/store"
	"github.com/reclaimworks/assay-cli/pkg/genai"
)

// pipelineEnv holds the initialized store, clients, and pipeline shared
// by the batch/run/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Objects  storage.ObjectStore
}

// Close releases resources held by the environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initPipeline sets up the store, detector, and generation client, and
// builds the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	if cfg.GenAI.Key == "" {
		zap.L().Warn("ASSAY_GENAI_KEY not set, generation steps will fail")
	}
	gen := genai.NewClient(cfg.GenAI.Key, genai.WithRateLimit(cfg.GenAI.RequestsPerSecond))

	detector := detect.NewStub()

	p := pipeline.New(cfg, st, detector, gen)

	return &pipelineEnv{
		Store:    st,
		Pipeline: p,
		Objects:  storage.NewLocal(cfg.Storage.Root),
	}, nil
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reclaimworks/assay-cli/internal/recycler"
	"github.com/reclaimworks/assay-cli/internal/storage"
	"github.com/reclaimworks/assay-cli/internal/store"
	"github.com/reclaimworks/assay-cli/pkg/geocode"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var finder *recycler.Finder
		if cfg.Geocode.Key != "" {
			finder = recycler.NewFinder(geocode.NewClient(cfg.Geocode.Key))
		} else {
			zap.L().Warn("ASSAY_GEOCODE_KEY not set, recycler lookup disabled")
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/api", func(r chi.Router) {
			r.Post("/batches", func(w http.ResponseWriter, req *http.Request) {
				var body struct {
					Location string         `json:"location"`
					Metadata map[string]any `json:"metadata"`
				}
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil && err != io.EOF {
					writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
					return
				}

				batch, err := env.Store.CreateBatch(req.Context(), body.Location, body.Metadata)
				if err != nil {
					writeStoreError(w, err)
					return
				}
				writeJSON(w, http.StatusCreated, batch)
			})

			r.Route("/batches/{batchID}", func(r chi.Router) {
				r.Get("/", func(w http.ResponseWriter, req *http.Request) {
					batch, err := env.Store.GetBatch(req.Context(), chi.URLParam(req, "batchID"))
					if err != nil {
						writeStoreError(w, err)
						return
					}
					writeJSON(w, http.StatusOK, batch)
				})

				r.Post("/images", func(w http.ResponseWriter, req *http.Request) {
					batchID := chi.URLParam(req, "batchID")
					if _, err := env.Store.GetBatch(req.Context(), batchID); err != nil {
						writeStoreError(w, err)
						return
					}

					file, header, err := req.FormFile("file")
					if err != nil {
						writeError(w, http.StatusBadRequest, "INVALID_BODY", "multipart file field required")
						return
					}
					defer file.Close()

					data, err := io.ReadAll(file)
					if err != nil {
						writeError(w, http.StatusBadRequest, "INVALID_BODY", "unreadable upload")
						return
					}

					key := storage.ImageKey(batchID, header.Filename)
					if err := env.Objects.Put(req.Context(), key, data); err != nil {
						writeError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to store image")
						return
					}

					mimeType := header.Header.Get("Content-Type")
					if mimeType == "" {
						mimeType = "application/octet-stream"
					}
					asset, err := env.Store.AddImageAsset(req.Context(), batchID, header.Filename, key, mimeType, int64(len(data)))
					if err != nil {
						writeStoreError(w, err)
						return
					}
					writeJSON(w, http.StatusCreated, asset)
				})

				r.Post("/inventory-text", func(w http.ResponseWriter, req *http.Request) {
					batchID := chi.URLParam(req, "batchID")
					var body struct {
						Text string `json:"text"`
					}
					if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Text == "" {
						writeError(w, http.StatusBadRequest, "INVALID_BODY", "text is required")
						return
					}
					if _, err := env.Store.GetBatch(req.Context(), batchID); err != nil {
						writeStoreError(w, err)
						return
					}

					entry, err := env.Store.AddTextEntry(req.Context(), batchID, body.Text)
					if err != nil {
						writeStoreError(w, err)
						return
					}
					writeJSON(w, http.StatusCreated, entry)
				})

				r.Post("/run", func(w http.ResponseWriter, req *http.Request) {
					batchID := chi.URLParam(req, "batchID")
					var body struct {
						Force bool `json:"force"`
					}
					if err := json.NewDecoder(req.Body).Decode(&body); err != nil && err != io.EOF {
						writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
						return
					}
					if _, err := env.Store.GetBatch(req.Context(), batchID); err != nil {
						writeStoreError(w, err)
						return
					}

					// The pipeline takes minutes; clients poll /status.
					go func() {
						if _, err := env.Pipeline.RunFull(ctx, batchID, body.Force); err != nil {
							zap.L().Error("pipeline run failed",
								zap.String("batch_id", batchID),
								zap.Error(err),
							)
						}
					}()

					writeJSON(w, http.StatusAccepted, map[string]string{
						"batchId": batchID,
						"status":  "accepted",
					})
				})

				r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
					status, err := env.Pipeline.Status(req.Context(), chi.URLParam(req, "batchID"))
					if err != nil {
						writeStoreError(w, err)
						return
					}
					writeJSON(w, http.StatusOK, status)
				})

				r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
					runs, err := env.Store.ListRuns(req.Context(), chi.URLParam(req, "batchID"))
					if err != nil {
						writeStoreError(w, err)
						return
					}
					writeJSON(w, http.StatusOK, runs)
				})

				r.Get("/inventory", func(w http.ResponseWriter, req *http.Request) {
					items, err := env.Store.GetInventory(req.Context(), chi.URLParam(req, "batchID"))
					if err != nil {
						writeStoreError(w, err)
						return
					}
					writeJSON(w, http.StatusOK, items)
				})

				r.Get("/detections", func(w http.ResponseWriter, req *http.Request) {
					batch, err := env.Store.GetBatch(req.Context(), chi.URLParam(req, "batchID"))
					if err != nil {
						writeStoreError(w, err)
						return
					}
					writeJSON(w, http.StatusOK, batch.ImageAssets)
				})

				r.Get("/metals", func(w http.ResponseWriter, req *http.Request) {
					est, err := env.Store.GetMetalEstimate(req.Context(), chi.URLParam(req, "batchID"))
					if err != nil {
						writeStoreError(w, err)
						return
					}
					writeJSON(w, http.StatusOK, est)
				})

				r.Get("/valuation", func(w http.ResponseWriter, req *http.Request) {
					snap, err := env.Store.GetPriceSnapshot(req.Context(), chi.URLParam(req, "batchID"))
					if err != nil {
						writeStoreError(w, err)
						return
					}
					writeJSON(w, http.StatusOK, snap)
				})

				r.Get("/extraction", func(w http.ResponseWriter, req *http.Request) {
					plan, err := env.Store.GetExtractionPlan(req.Context(), chi.URLParam(req, "batchID"))
					if err != nil {
						writeStoreError(w, err)
						return
					}
					writeJSON(w, http.StatusOK, plan)
				})

				r.Get("/report", func(w http.ResponseWriter, req *http.Request) {
					report, err := env.Store.GetInvestorReport(req.Context(), chi.URLParam(req, "batchID"))
					if err != nil {
						writeStoreError(w, err)
						return
					}
					writeJSON(w, http.StatusOK, report)
				})
			})

			r.Get("/recyclers/nearby", func(w http.ResponseWriter, req *http.Request) {
				if finder == nil {
					writeError(w, http.StatusServiceUnavailable, "GEOCODE_DISABLED", "geocoding is not configured")
					return
				}

				q := recycler.Query{
					Address:    req.URL.Query().Get("address"),
					TypeFilter: req.URL.Query().Get("type"),
				}
				q.Lat, _ = strconv.ParseFloat(req.URL.Query().Get("lat"), 64)
				q.Lng, _ = strconv.ParseFloat(req.URL.Query().Get("lng"), 64)
				q.RadiusMiles, _ = strconv.ParseFloat(req.URL.Query().Get("radius"), 64)

				centers, err := finder.Nearby(req.Context(), q)
				if err != nil {
					writeError(w, http.StatusBadGateway, "GEOCODE_ERROR", err.Error())
					return
				}
				writeJSON(w, http.StatusOK, centers)
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// notReadyCodes maps missing singleton entities to their API error codes.
var notReadyCodes = map[string]string{
	"batch":           "BATCH_NOT_FOUND",
	"pipeline_run":    "RUN_NOT_FOUND",
	"image_asset":     "IMAGE_NOT_FOUND",
	"metal_estimate":  "METALS_NOT_READY",
	"price_snapshot":  "VALUATION_NOT_READY",
	"extraction_plan": "EXTRACTION_NOT_READY",
	"investor_report": "REPORT_NOT_READY",
}

func writeStoreError(w http.ResponseWriter, err error) {
	var nf *store.NotFoundError
	if errors.As(err, &nf) {
		code := notReadyCodes[nf.Entity]
		if code == "" {
			code = "NOT_FOUND"
		}
		writeError(w, http.StatusNotFound, code, nf.Error())
		return
	}
	zap.L().Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reclaimworks/assay-cli/internal/storage"
)

var (
	batchLocation string
	batchMeta     []string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Manage e-waste batches",
}

var batchCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		metadata := map[string]any{}
		for _, kv := range batchMeta {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				return eris.Errorf("invalid --meta entry %q, want key=value", kv)
			}
			metadata[parts[0]] = parts[1]
		}

		batch, err := env.Store.CreateBatch(cmd.Context(), batchLocation, metadata)
		if err != nil {
			return err
		}

		zap.L().Info("batch created", zap.String("batch_id", batch.ID))
		return printJSON(batch)
	},
}

var batchAddImageCmd = &cobra.Command{
	Use:   "add-image <batch-id> <file>...",
	Short: "Upload images to a batch",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		batchID := args[0]
		if _, err := env.Store.GetBatch(cmd.Context(), batchID); err != nil {
			return err
		}

		for _, file := range args[1:] {
			data, err := os.ReadFile(file)
			if err != nil {
				return eris.Wrapf(err, "read %s", file)
			}

			filename := filepath.Base(file)
			key := storage.ImageKey(batchID, filename)
			if err := env.Objects.Put(cmd.Context(), key, data); err != nil {
				return err
			}

			mimeType := mime.TypeByExtension(filepath.Ext(filename))
			if mimeType == "" {
				mimeType = "application/octet-stream"
			}

			asset, err := env.Store.AddImageAsset(cmd.Context(), batchID, filename, key, mimeType, int64(len(data)))
			if err != nil {
				return err
			}
			zap.L().Info("image added",
				zap.String("batch_id", batchID),
				zap.String("asset_id", asset.ID),
				zap.String("key", key),
			)
		}
		return nil
	},
}

var batchAddTextCmd = &cobra.Command{
	Use:   "add-text <batch-id> <text>",
	Short: "Add a free-text inventory entry to a batch",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if _, err := env.Store.GetBatch(cmd.Context(), args[0]); err != nil {
			return err
		}

		entry, err := env.Store.AddTextEntry(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(entry)
	},
}

var batchShowCmd = &cobra.Command{
	Use:   "show <batch-id>",
	Short: "Show a batch with everything derived from it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		batch, err := env.Store.GetBatch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(batch)
	},
}

var batchInventoryCmd = &cobra.Command{
	Use:   "inventory <batch-id>",
	Short: "Show a batch's normalized inventory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		items, err := env.Store.GetInventory(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(items)
	},
}

var batchReportCmd = &cobra.Command{
	Use:   "report <batch-id>",
	Short: "Show a batch's investor report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Store.GetInvestorReport(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var batchStatusCmd = &cobra.Command{
	Use:   "status <batch-id>",
	Short: "Show the latest pipeline status for a batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		status, err := env.Pipeline.Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(status)
	},
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal output")
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	batchCreateCmd.Flags().StringVar(&batchLocation, "location", "", "batch location (default USA)")
	batchCreateCmd.Flags().StringArrayVar(&batchMeta, "meta", nil, "metadata entries, key=value")

	batchCmd.AddCommand(batchCreateCmd)
	batchCmd.AddCommand(batchAddImageCmd)
	batchCmd.AddCommand(batchAddTextCmd)
	batchCmd.AddCommand(batchShowCmd)
	batchCmd.AddCommand(batchInventoryCmd)
	batchCmd.AddCommand(batchReportCmd)
	batchCmd.AddCommand(batchStatusCmd)
	rootCmd.AddCommand(batchCmd)
}

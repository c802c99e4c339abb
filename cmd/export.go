package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reclaimworks/assay-cli/internal/export"
	"github.com/reclaimworks/assay-cli/pkg/notion"
)

var exportNotion bool

var exportCmd = &cobra.Command{
	Use:   "export <batch-id>",
	Short: "Deliver a batch's investor report to the configured FTP drop",
	Long:  "Fetches the finished investor report, uploads it as JSON to the configured FTP directory, and with --notion also publishes a summary card to the configured Notion database.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		batchID := args[0]
		report, err := env.Store.GetInvestorReport(cmd.Context(), batchID)
		if err != nil {
			return err
		}
		batch, err := env.Store.GetBatch(cmd.Context(), batchID)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal report")
		}

		if cfg.Export.FTPAddr == "" {
			return eris.New("ASSAY_EXPORT_FTP_ADDR not configured")
		}
		exporter := export.NewFTPExporter(cfg.Export.FTPAddr, cfg.Export.FTPUser, cfg.Export.FTPPassword, cfg.Export.FTPDir)
		name := fmt.Sprintf("report-%s.json", batchID)
		if err := exporter.Upload(cmd.Context(), name, data); err != nil {
			return err
		}

		if exportNotion {
			if cfg.Notion.Token == "" || cfg.Notion.ReportDB == "" {
				return eris.New("notion token and report_db must be configured for --notion")
			}
			card := notion.ReportCard{
				BatchID:       batchID,
				Location:      batch.Location,
				Verdict:       string(report.ExecutiveSummary.Verdict),
				Confidence:    string(report.ExecutiveSummary.Confidence),
				GrossValueUSD: report.ExecutiveSummary.GrossValueUSD,
				TotalCostUSD:  report.ExecutiveSummary.TotalCostUSD,
				NetProfitUSD:  report.ExecutiveSummary.NetProfitUSD,
				GeneratedAt:   report.AuditTrail.CreatedAtUTC,
			}
			url, err := notion.NewClient(cfg.Notion.Token).PublishReport(cmd.Context(), cfg.Notion.ReportDB, card)
			if err != nil {
				return err
			}
			zap.L().Info("report published to notion", zap.String("url", url))
		}

		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportNotion, "notion", false, "also publish a summary card to Notion")
	rootCmd.AddCommand(exportCmd)
}

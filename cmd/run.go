package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	runForce       bool
	runFile        string
	runConcurrency int
)

var runCmd = &cobra.Command{
	Use:   "run [batch-id]",
	Short: "Run the full assessment pipeline for one or more batches",
	Long:  "Runs every pipeline step in order for the given batch. With --file, runs batches listed one per line with bounded concurrency; each batch still executes its steps strictly sequentially.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if runFile == "" && len(args) == 0 {
			return eris.New("batch-id argument or --file required")
		}

		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if runFile == "" {
			outcome, err := env.Pipeline.RunFull(cmd.Context(), args[0], runForce)
			if err != nil {
				return err
			}
			return printJSON(outcome)
		}

		batchIDs, err := readBatchList(runFile)
		if err != nil {
			return err
		}
		zap.L().Info("running batches from file",
			zap.String("file", runFile),
			zap.Int("count", len(batchIDs)),
			zap.Int("concurrency", runConcurrency),
		)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(runConcurrency)
		for _, batchID := range batchIDs {
			g.Go(func() error {
				outcome, err := env.Pipeline.RunFull(ctx, batchID, runForce)
				if err != nil {
					zap.L().Error("batch run failed", zap.String("batch_id", batchID), zap.Error(err))
					return err
				}
				zap.L().Info("batch run complete",
					zap.String("batch_id", batchID),
					zap.String("run_id", outcome.RunID),
					zap.String("verdict", string(outcome.Report.ExecutiveSummary.Verdict)),
				)
				return nil
			})
		}
		return g.Wait()
	},
}

func readBatchList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return ids, nil
}

func init() {
	runCmd.Flags().BoolVar(&runForce, "force", false, "recompute detections even when cached results exist")
	runCmd.Flags().StringVar(&runFile, "file", "", "file listing batch ids, one per line")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 4, "max batches running at once with --file")
	rootCmd.AddCommand(runCmd)
}

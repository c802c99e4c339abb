package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/reclaimworks/assay-cli/internal/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config.yaml with default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		const path = "config.yaml"
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return eris.Errorf("%s already exists, use --force to overwrite", path)
		}

		defaults := config.Config{
			Store: config.StoreConfig{
				Driver:      "sqlite",
				DatabaseURL: "assay.db",
			},
			GenAI: config.GenAIConfig{
				Model:             "claude-sonnet-4-5-20250929",
				Temperature:       0.7,
				RequestsPerSecond: 2.0,
			},
			Storage: config.StorageConfig{Root: "./data"},
			Export:  config.ExportConfig{FTPDir: "reports"},
			Pipeline: config.PipelineConfig{
				MaxConcurrentBatches: 4,
			},
			Server: config.ServerConfig{Port: 8080},
			Log: config.LogConfig{
				Level:  "info",
				Format: "json",
			},
		}

		out, err := yaml.Marshal(defaults)
		if err != nil {
			return eris.Wrap(err, "marshal defaults")
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", path)
		}

		zap.L().Info("config written", zap.String("path", path))
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config.yaml")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

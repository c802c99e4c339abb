// Package config loads application configuration from config.yaml and
// ASSAY_-prefixed environment variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	GenAI    GenAIConfig    `yaml:"genai" mapstructure:"genai"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Notion   NotionConfig   `yaml:"notion" mapstructure:"notion"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GenAIConfig holds model provider settings.
type GenAIConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	Model             string  `yaml:"model" mapstructure:"model"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// StorageConfig configures where uploaded batch images live.
type StorageConfig struct {
	Root string `yaml:"root" mapstructure:"root"`
}

// GeocodeConfig holds Google Maps API settings for recycler lookup.
type GeocodeConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// NotionConfig holds Notion API credentials for report publishing.
type NotionConfig struct {
	Token    string `yaml:"token" mapstructure:"token"`
	ReportDB string `yaml:"report_db" mapstructure:"report_db"`
}

// ExportConfig configures FTP delivery of reports.
type ExportConfig struct {
	FTPAddr     string `yaml:"ftp_addr" mapstructure:"ftp_addr"`
	FTPUser     string `yaml:"ftp_user" mapstructure:"ftp_user"`
	FTPPassword string `yaml:"ftp_password" mapstructure:"ftp_password"`
	FTPDir      string `yaml:"ftp_dir" mapstructure:"ftp_dir"`
}

// PipelineConfig configures batch processing.
type PipelineConfig struct {
	MaxConcurrentBatches int `yaml:"max_concurrent_batches" mapstructure:"max_concurrent_batches"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ASSAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "assay.db")
	v.SetDefault("genai.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("genai.temperature", 0.7)
	v.SetDefault("genai.requests_per_second", 2.0)
	v.SetDefault("storage.root", "./data")
	v.SetDefault("export.ftp_dir", "reports")
	v.SetDefault("pipeline.max_concurrent_batches", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

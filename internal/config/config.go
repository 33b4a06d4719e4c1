// Package config provides unified configuration for the Patrona services.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the unified configuration for the Patrona engine.
type Config struct {
	// DataDir is the base directory for working files (exports, downloads)
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// HTTP configuration
	HTTP HTTPConfig `json:"http" yaml:"http"`

	// Ingest configuration
	Ingest IngestConfig `json:"ingest" yaml:"ingest"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Prediction service configuration
	Prediction PredictionConfig `json:"prediction" yaml:"prediction"`

	// Notify configuration
	Notify NotifyConfig `json:"notify" yaml:"notify"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	// Addr is the listen address for the API server
	Addr string `json:"addr" yaml:"addr"`

	// ReadTimeout is the HTTP read timeout
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the HTTP write timeout
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the HTTP idle timeout
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
}

// IngestConfig holds the default input sources for an ingestion run.
// Each source is a URI: a plain or .snappy CSV object path, or a SQL DSN
// (mysql://, mariadb://, postgres://, sqlite file) with "#table" appended.
type IngestConfig struct {
	// CustomerSource locates the per-customer summary dataset
	CustomerSource string `json:"customer_source" yaml:"customer_source"`

	// TransactionSource locates the per-transaction event dataset
	TransactionSource string `json:"transaction_source" yaml:"transaction_source"`

	// FetchTimeout bounds the concurrent fetch of both datasets
	FetchTimeout time.Duration `json:"fetch_timeout" yaml:"fetch_timeout"`
}

// StorageConfig holds object storage configuration for raw inputs and
// exports.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// PredictionConfig holds the churn/next-purchase service configuration.
type PredictionConfig struct {
	// BaseURL is the prediction service root (POST {BaseURL}/predict)
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Timeout bounds each prediction call
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// NotifyConfig holds the optional Kafka run-summary notifier configuration.
type NotifyConfig struct {
	// Enabled controls whether run summaries are published
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Brokers lists the Kafka bootstrap addresses
	Brokers []string `json:"brokers" yaml:"brokers"`

	// Topic is the run-summary topic
	Topic string `json:"topic" yaml:"topic"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/patrona",
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Ingest: IngestConfig{
			CustomerSource:    "rfm.csv",
			TransactionSource: "transactions.csv",
			FetchTimeout:      2 * time.Minute,
		},
		Storage: StorageConfig{
			Type: "local",
			Path: "",
		},
		Prediction: PredictionConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 30 * time.Second,
		},
		Notify: NotifyConfig{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topic:   "patrona-runs",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/patrona"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "storage")
	}
}

// ExportDir returns the directory for export files.
func (c *Config) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}

	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	if c.Ingest.CustomerSource == "" || c.Ingest.TransactionSource == "" {
		return fmt.Errorf("ingest.customer_source and ingest.transaction_source are required")
	}

	if c.Notify.Enabled && len(c.Notify.Brokers) == 0 {
		return fmt.Errorf("notify.brokers is required when notify is enabled")
	}

	return nil
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.ExportDir(),
	}
	if c.Storage.Type == "local" {
		dirs = append(dirs, c.Storage.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the PATRONA_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("PATRONA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("PATRONA_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}

	// Ingest configuration
	if v := os.Getenv("PATRONA_CUSTOMER_SOURCE"); v != "" {
		cfg.Ingest.CustomerSource = v
	}
	if v := os.Getenv("PATRONA_TRANSACTION_SOURCE"); v != "" {
		cfg.Ingest.TransactionSource = v
	}
	if v := os.Getenv("PATRONA_FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Ingest.FetchTimeout = d
		}
	}

	// Storage configuration
	if v := os.Getenv("PATRONA_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("PATRONA_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("PATRONA_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("PATRONA_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("PATRONA_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}

	// Prediction configuration
	if v := os.Getenv("PATRONA_PREDICTION_URL"); v != "" {
		cfg.Prediction.BaseURL = v
	}
	if v := os.Getenv("PATRONA_PREDICTION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Prediction.Timeout = d
		}
	}

	// Notify configuration
	if v := os.Getenv("PATRONA_NOTIFY_ENABLED"); v != "" {
		cfg.Notify.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("PATRONA_KAFKA_BROKERS"); v != "" {
		cfg.Notify.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("PATRONA_KAFKA_TOPIC"); v != "" {
		cfg.Notify.Topic = v
	}
}

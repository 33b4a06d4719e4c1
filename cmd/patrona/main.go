// Package main implements the patrona service binary.
// It serves the analytics HTTP API and optionally runs an initial
// ingestion cycle before accepting traffic.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/patrona/patrona/internal/app"
	"github.com/patrona/patrona/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile     string
		dataDir        string
		httpAddr       string
		customerSrc    string
		transactionSrc string
		runOnStart     bool
		showVersion    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for data files")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP listen address")
	flag.StringVar(&customerSrc, "customers", "", "Customer dataset locator (path, URL, or DSN)")
	flag.StringVar(&transactionSrc, "transactions", "", "Transaction dataset locator (path, URL, or DSN)")
	flag.BoolVar(&runOnStart, "run-on-start", true, "Run an ingestion cycle before serving")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Patrona - Customer Analytics Engine\n\n")
		fmt.Fprintf(os.Stderr, "Usage: patrona [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  patrona --data-dir /data/patrona\n")
		fmt.Fprintf(os.Stderr, "  patrona --customers rfm.csv --transactions transactions.csv\n")
		fmt.Fprintf(os.Stderr, "  patrona --config /etc/patrona/config.yaml\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PATRONA_DATA_DIR            Base directory for data files\n")
		fmt.Fprintf(os.Stderr, "  PATRONA_HTTP_ADDR           HTTP listen address\n")
		fmt.Fprintf(os.Stderr, "  PATRONA_CUSTOMER_SOURCE     Customer dataset locator\n")
		fmt.Fprintf(os.Stderr, "  PATRONA_TRANSACTION_SOURCE  Transaction dataset locator\n")
		fmt.Fprintf(os.Stderr, "  PATRONA_STORAGE_TYPE        Storage type (local, s3)\n")
		fmt.Fprintf(os.Stderr, "  PATRONA_PREDICTION_URL      Churn prediction service base URL\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("patrona version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	// A local .env is optional; absence is not an error.
	_ = godotenv.Load()

	cfg, err := loadConfig(configFile, dataDir, httpAddr, customerSrc, transactionSrc)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to prepare data directories: %v", err)
	}

	printBanner(cfg)

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	if runOnStart {
		if _, err := application.Run(ctx, "", ""); err != nil {
			log.Printf("Initial ingestion failed: %v", err)
		}
	}

	if err := application.Serve(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// loadConfig layers file, environment, and flag configuration, flags winning.
func loadConfig(configFile, dataDir, httpAddr, customerSrc, transactionSrc string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}
	if customerSrc != "" {
		cfg.Ingest.CustomerSource = customerSrc
	}
	if transactionSrc != "" {
		cfg.Ingest.TransactionSource = transactionSrc
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// printBanner prints the startup banner with configuration summary.
func printBanner(cfg *config.Config) {
	log.Printf("╔═══════════════════════════════════════════╗")
	log.Printf("║                 PATRONA                   ║")
	log.Printf("║        Customer Analytics Engine          ║")
	log.Printf("╚═══════════════════════════════════════════╝")
	log.Printf("")
	log.Printf("Configuration:")
	log.Printf("  Data Dir:     %s", cfg.DataDir)
	log.Printf("  HTTP:         %s", cfg.HTTP.Addr)
	log.Printf("  Storage:      %s", cfg.Storage.Type)
	log.Printf("  Customers:    %s", cfg.Ingest.CustomerSource)
	log.Printf("  Transactions: %s", cfg.Ingest.TransactionSource)
	if cfg.Prediction.BaseURL != "" {
		log.Printf("  Prediction:   %s", cfg.Prediction.BaseURL)
	}
	if cfg.Notify.Enabled {
		log.Printf("  Kafka:        %v (topic %s)", cfg.Notify.Brokers, cfg.Notify.Topic)
	}
	log.Printf("")
}

// Package main implements the patrona-report batch binary.
// It runs one ingestion cycle, optionally enriches the top customers with
// churn predictions, and writes the export artifacts, then exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/patrona/patrona/internal/app"
	"github.com/patrona/patrona/internal/config"
	"github.com/patrona/patrona/internal/prediction"
	"github.com/patrona/patrona/pkg/types"
)

func main() {
	var (
		configFile      string
		dataDir         string
		customerSrc     string
		transactionSrc  string
		withPredictions bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for data files")
	flag.StringVar(&customerSrc, "customers", "", "Customer dataset locator (path, URL, or DSN)")
	flag.StringVar(&transactionSrc, "transactions", "", "Transaction dataset locator (path, URL, or DSN)")
	flag.BoolVar(&withPredictions, "predict", false, "Request churn predictions for the top customers")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "patrona-report - one-shot analytics run and export\n\n")
		fmt.Fprintf(os.Stderr, "Usage: patrona-report [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  patrona-report --customers rfm.csv --transactions transactions.csv\n")
		fmt.Fprintf(os.Stderr, "  patrona-report --config config.yaml --predict\n")
	}

	flag.Parse()

	_ = godotenv.Load()

	cfg, err := loadConfig(configFile, dataDir, customerSrc, transactionSrc)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to prepare data directories: %v", err)
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	snap, err := application.Run(ctx, "", "")
	if err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}

	if withPredictions {
		if cfg.Prediction.BaseURL == "" {
			log.Fatalf("--predict requires a prediction service URL (PATRONA_PREDICTION_URL)")
		}
		predictTopCustomers(ctx, application.Predictor(), snap.TopCustomers)
	}

	csvPath, jsonPath, err := application.Export(ctx)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	fmt.Printf("run %s: %d customers, %d transactions, %d defects\n",
		snap.Meta.RunID, snap.Meta.CustomerRows, snap.Meta.TransactionRows, snap.Meta.Defects)
	fmt.Printf("wrote %s\n", csvPath)
	fmt.Printf("wrote %s\n", jsonPath)
}

// predictTopCustomers calls the prediction service once per top customer
// and prints the results. Individual failures are reported and skipped.
func predictTopCustomers(ctx context.Context, client *prediction.Client, customers []types.CustomerSummary) {
	bar := progressbar.Default(int64(len(customers)))

	type row struct {
		id    string
		churn float64
		next  float64
	}
	results := make([]row, 0, len(customers))

	for i := range customers {
		req, err := prediction.RequestFor(&customers[i])
		if err != nil {
			log.Printf("skipping %s: %v", customers[i].CustomerID, err)
			_ = bar.Add(1)
			continue
		}
		resp, err := client.Predict(ctx, req)
		if err != nil {
			log.Printf("prediction for %s failed: %v", customers[i].CustomerID, err)
			_ = bar.Add(1)
			continue
		}
		results = append(results, row{customers[i].CustomerID, resp.ChurnProbability, resp.PredNextPurchaseDays})
		_ = bar.Add(1)
	}

	for _, r := range results {
		fmt.Printf("%s\tchurn %.1f%%\tnext purchase in %.0f days\n", r.id, r.churn, r.next)
	}
}

func loadConfig(configFile, dataDir, customerSrc, transactionSrc string) (*config.Config, error) {
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

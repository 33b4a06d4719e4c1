// Package app wires configuration, storage, the analytics engine, and the
// HTTP API into a runnable service.
package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/patrona/patrona/internal/analytics/engine"
	apihttp "github.com/patrona/patrona/internal/api/http"
	"github.com/patrona/patrona/internal/config"
	"github.com/patrona/patrona/internal/export"
	"github.com/patrona/patrona/internal/ingest"
	"github.com/patrona/patrona/internal/normalize"
	"github.com/patrona/patrona/internal/notify"
	"github.com/patrona/patrona/internal/observability"
	"github.com/patrona/patrona/internal/prediction"
	"github.com/patrona/patrona/internal/server"
	"github.com/patrona/patrona/internal/storage"
	"github.com/patrona/patrona/pkg/types"
)

// App owns the long-lived components of the analytics service.
type App struct {
	cfg       *config.Config
	objects   storage.ObjectStorage
	snapshots *engine.Store
	predictor *prediction.Client
	notifier  *notify.Notifier
}

// New builds the application from resolved, validated configuration.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	var objects storage.ObjectStorage
	var err error
	switch cfg.Storage.Type {
	case "s3":
		objects, err = storage.NewS3Storage(ctx, cfg.Storage.S3.Bucket, storage.S3Config{
			Region:   cfg.Storage.S3.Region,
			Endpoint: cfg.Storage.S3.Endpoint,
		})
	default:
		objects, err = storage.NewLocalStorage(cfg.Storage.Path)
	}
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		objects:   objects,
		snapshots: engine.NewStore(),
		predictor: prediction.NewClient(cfg.Prediction.BaseURL, cfg.Prediction.Timeout),
	}
	if cfg.Notify.Enabled {
		a.notifier = notify.NewNotifier(cfg.Notify.Brokers, cfg.Notify.Topic)
	}
	return a, nil
}

// Snapshots exposes the snapshot store.
func (a *App) Snapshots() *engine.Store {
	return a.snapshots
}

// Objects exposes the object storage layer.
func (a *App) Objects() storage.ObjectStorage {
	return a.objects
}

// Predictor exposes the prediction client.
func (a *App) Predictor() *prediction.Client {
	return a.predictor
}

// Run executes one full ingestion cycle: fetch both datasets, normalize,
// build the snapshot, install it, and publish the run summary. Empty
// locators fall back to the configured sources. A failure leaves the
// previous snapshot in place.
func (a *App) Run(ctx context.Context, customerSource, transactionSource string) (*types.AnalyticsSnapshot, error) {
	if customerSource == "" {
		customerSource = a.cfg.Ingest.CustomerSource
	}
	if transactionSource == "" {
		transactionSource = a.cfg.Ingest.TransactionSource
	}
	if a.cfg.Ingest.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Ingest.FetchTimeout)
		defer cancel()
	}

	started := time.Now()
	stats := observability.NewRunStats()

	custSrc, err := ingest.NewSource(customerSource, a.objects)
	if err != nil {
		return nil, err
	}
	txSrc, err := ingest.NewSource(transactionSource, a.objects)
	if err != nil {
		return nil, err
	}

	fetchStart := time.Now()
	custRows, txRows, err := ingest.FetchPair(ctx, custSrc, txSrc)
	if err != nil {
		return nil, err
	}
	stats.RecordStage("fetch", time.Since(fetchStart))
	stats.RecordRows("customers", len(custRows))
	stats.RecordRows("transactions", len(txRows))

	now := time.Now().UTC()
	norm := normalize.New(now, stats)

	var customers []types.CustomerSummary
	var transactions []types.TransactionRecord
	stats.TimeStage("normalize", func() {
		customers = norm.Customers(custRows)
		transactions = norm.Transactions(txRows)
	})

	src := engine.SourceInfo{
		CustomerFingerprint:    ingest.Fingerprint(custRows),
		TransactionFingerprint: ingest.Fingerprint(txRows),
		CustomerRows:           len(customers),
		TransactionRows:        len(transactions),
	}

	var snap *types.AnalyticsSnapshot
	stats.TimeStage("build", func() {
		snap = engine.Build(now, customers, transactions, src, stats)
	})
	a.snapshots.Replace(snap)

	log.Printf("run %s complete: %d customers, %d transactions, %d defects in %v",
		snap.Meta.RunID, src.CustomerRows, src.TransactionRows, snap.Meta.Defects, time.Since(started))

	if a.notifier != nil {
		summary := notify.SummaryFrom(snap.Meta.RunID, snap.Meta.GeneratedAt,
			src.CustomerRows, src.TransactionRows, time.Since(started), stats)
		if err := a.notifier.RunCompleted(ctx, summary); err != nil {
			log.Printf("run summary publish failed: %v", err)
		}
	}

	return snap, nil
}

// Export writes the current snapshot's artifacts (scored CSV and full JSON)
// into object storage under exports/, returning the object paths.
func (a *App) Export(ctx context.Context) (csvPath, jsonPath string, err error) {
	snap, err := a.snapshots.Current()
	if err != nil {
		return "", "", err
	}

	now := time.Now().UTC()
	csvPath = export.TimestampedName("exports", "rfm", "csv", now)
	jsonPath = export.TimestampedName("exports", "snapshot", "json", now)

	if err := export.RFMCSV(ctx, a.objects, csvPath, snap.Customers); err != nil {
		return "", "", err
	}
	if err := export.SnapshotJSON(ctx, a.objects, jsonPath, snap); err != nil {
		return "", "", err
	}
	return csvPath, jsonPath, nil
}

// Serve runs the HTTP API until a shutdown signal arrives.
func (a *App) Serve(ctx context.Context) error {
	sm := server.NewShutdownManager(server.ShutdownConfig{})
	if a.notifier != nil {
		sm.RegisterCloser(a.notifier)
	}

	router := apihttp.NewRouter(a, a.snapshots, a.predictor)
	httpServer := &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      server.ShutdownMiddleware(sm)(router),
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}
	graceful := server.NewGracefulHTTPServer(httpServer, sm)

	go func() {
		if err := sm.ListenForSignals(ctx); err != nil {
			log.Printf("shutdown finished with error: %v", err)
		}
	}()

	log.Printf("listening on %s", a.cfg.HTTP.Addr)
	return graceful.ListenAndServe()
}

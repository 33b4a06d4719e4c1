package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/patrona/patrona/internal/config"
	"github.com/patrona/patrona/internal/errors"
)

const customerCSV = `Customer ID,Frequency,Monetary,Avg Order Value,Customer Lifetime Days,Customer Type,Attribution
C1,10,1000,100,400,farm,Email
C2,1,10,10,30,retail,Referral
`

const transactionCSV = `Customer ID,Order,Date,Products,Items Sold,Revenue,Net Sales,Status
C1,O-1,2024-05-30,"Feed, Vaccine",2,120,110,completed
C1,O-2,2024-04-01,Feed,1,60,60,completed
C2,O-3,2023-11-15,Dewormer,1,10,10,completed
C2,O-4,2023-11-16,Feed,1,15,15,refunded
`

func testApp(t *testing.T) (*App, string) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.Storage.Path = filepath.Join(dir, "storage")
	cfg.Ingest.CustomerSource = "rfm.csv"
	cfg.Ingest.TransactionSource = "transactions.csv"
	cfg.Resolve()
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	writeInput(t, cfg.Storage.Path, "rfm.csv", customerCSV)
	writeInput(t, cfg.Storage.Path, "transactions.csv", transactionCSV)

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, cfg.Storage.Path
}

func writeInput(t *testing.T, base, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(base, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRunBuildsSnapshot(t *testing.T) {
	a, _ := testApp(t)

	snap, err := a.Run(context.Background(), "", "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if snap.Meta.CustomerRows != 2 {
		t.Errorf("expected 2 customers, got %d", snap.Meta.CustomerRows)
	}
	// the refunded transaction is dropped
	if snap.Meta.TransactionRows != 3 {
		t.Errorf("expected 3 completed transactions, got %d", snap.Meta.TransactionRows)
	}
	if snap.Meta.CustomerFingerprint == "" || snap.Meta.TransactionFingerprint == "" {
		t.Error("expected dataset fingerprints")
	}

	for _, c := range snap.Customers {
		if c.Scores == nil {
			t.Errorf("customer %s not scored", c.CustomerID)
		}
	}

	current, err := a.Snapshots().Current()
	if err != nil || current != snap {
		t.Error("snapshot not installed in store")
	}
}

func TestRunSourceFailureKeepsPreviousSnapshot(t *testing.T) {
	a, _ := testApp(t)

	first, err := a.Run(context.Background(), "", "")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	_, err = a.Run(context.Background(), "missing.csv", "")
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if errors.GetCode(err) != errors.CodeSourceUnavailable {
		t.Errorf("expected SOURCE_UNAVAILABLE, got %s", errors.GetCode(err))
	}

	current, err := a.Snapshots().Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current != first {
		t.Error("failed run must not replace the previous snapshot")
	}
}

func TestRunSourceOverride(t *testing.T) {
	a, base := testApp(t)
	writeInput(t, base, "alt.csv", "Customer ID,Monetary\nC9,5\n")

	snap, err := a.Run(context.Background(), "alt.csv", "")
	if err != nil {
		t.Fatalf("run with override: %v", err)
	}
	if snap.Meta.CustomerRows != 1 || snap.Customers[0].CustomerID != "C9" {
		t.Errorf("override not applied: %+v", snap.Meta)
	}
}

func TestExport(t *testing.T) {
	a, base := testApp(t)

	if _, _, err := a.Export(context.Background()); err == nil {
		t.Error("expected export to fail before first run")
	}

	if _, err := a.Run(context.Background(), "", ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	csvPath, jsonPath, err := a.Export(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	for _, p := range []string{csvPath, jsonPath} {
		if _, err := os.Stat(filepath.Join(base, p)); err != nil {
			t.Errorf("expected export object %s: %v", p, err)
		}
	}
}

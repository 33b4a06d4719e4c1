package timeseries

import (
	"testing"
	"time"

	"github.com/patrona/patrona/pkg/types"
)

func tx(id string, date time.Time, netSales float64) types.TransactionRecord {
	return types.TransactionRecord{
		CustomerID: id,
		Date:       date,
		NetSales:   netSales,
		Status:     types.StatusCompleted,
	}
}

func TestAggregateEmpty(t *testing.T) {
	if got := Aggregate(nil); len(got) != 0 {
		t.Errorf("expected empty series, got %d points", len(got))
	}
}

func TestAggregateDailyRollup(t *testing.T) {
	jan15 := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	transactions := []types.TransactionRecord{
		tx("A", jan15, 100),
		tx("B", jan15.Add(5*time.Hour), 50),
		tx("A", jan15.Add(8*time.Hour), 25), // same day, same customer
		tx("C", time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), 10),
	}

	got := Aggregate(transactions)
	if len(got) != 2 {
		t.Fatalf("expected 2 days, got %d", len(got))
	}

	first := got[0]
	if first.Date != "2024-01-15" {
		t.Errorf("expected 2024-01-15 first, got %s", first.Date)
	}
	if first.Sales != 175 {
		t.Errorf("expected 175 sales, got %v", first.Sales)
	}
	if first.Customers != 2 {
		t.Errorf("expected 2 distinct customers, got %d", first.Customers)
	}

	second := got[1]
	if second.Date != "2024-01-16" || second.Sales != 10 || second.Customers != 1 {
		t.Errorf("unexpected second day: %+v", second)
	}
}

func TestAggregateSortedByDate(t *testing.T) {
	transactions := []types.TransactionRecord{
		tx("A", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 1),
		tx("A", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1),
		tx("A", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 1),
	}

	got := Aggregate(transactions)
	for i := 1; i < len(got); i++ {
		if got[i-1].Date >= got[i].Date {
			t.Errorf("series not sorted: %s before %s", got[i-1].Date, got[i].Date)
		}
	}
}

func TestAggregateUTCBoundary(t *testing.T) {
	// 23:30 UTC and 00:30 UTC the next day land on different days.
	transactions := []types.TransactionRecord{
		tx("A", time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC), 5),
		tx("A", time.Date(2024, 1, 16, 0, 30, 0, 0, time.UTC), 5),
	}

	got := Aggregate(transactions)
	if len(got) != 2 {
		t.Fatalf("expected 2 days across midnight, got %d", len(got))
	}
}

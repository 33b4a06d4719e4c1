package view

import (
	"reflect"
	"testing"

	"github.com/patrona/patrona/pkg/types"
)

func scored(id, segment, customerType string, monetary float64) types.CustomerSummary {
	return types.CustomerSummary{
		CustomerID:   id,
		Monetary:     monetary,
		CustomerType: customerType,
		Scores:       &types.RFMScores{Segment: segment},
	}
}

func testSnapshot() *types.AnalyticsSnapshot {
	customers := []types.CustomerSummary{
		scored("A", types.SegmentChampions, "farm", 1000),
		scored("B", types.SegmentLoyal, "retail", 500),
		scored("C", types.SegmentChampions, "retail", 750),
		scored("D", types.SegmentHibernating, "farm", 10),
	}
	return &types.AnalyticsSnapshot{
		Customers:    customers,
		Segments:     SegmentCounts(customers),
		TopCustomers: TopByMonetary(customers, types.TopCustomerLimit),
		Recommendations: types.RecommendationMap{
			"A": {"Feed"},
			"B": {"Vaccine"},
			"C": {},
			"D": {"Dewormer"},
		},
	}
}

func TestApplyEmptyFilterRoundTrip(t *testing.T) {
	snap := testSnapshot()
	got := Apply(snap, types.ViewFilter{})

	if !reflect.DeepEqual(got.Customers, snap.Customers) {
		t.Error("empty filter should keep all customers")
	}
	if !reflect.DeepEqual(got.Segments, snap.Segments) {
		t.Errorf("segments diverged: %v vs %v", got.Segments, snap.Segments)
	}
	if !reflect.DeepEqual(got.TopCustomers, snap.TopCustomers) {
		t.Error("top customers diverged")
	}
	if !reflect.DeepEqual(got.Recommendations, snap.Recommendations) {
		t.Errorf("recommendations diverged: %v vs %v", got.Recommendations, snap.Recommendations)
	}
}

func TestApplyAllSentinel(t *testing.T) {
	snap := testSnapshot()
	got := Apply(snap, types.ViewFilter{Segment: types.FilterAll, CustomerType: types.FilterAll})

	if len(got.Customers) != len(snap.Customers) {
		t.Errorf("sentinel filter should match everything, got %d customers", len(got.Customers))
	}
}

func TestApplySegmentFilter(t *testing.T) {
	snap := testSnapshot()
	got := Apply(snap, types.ViewFilter{Segment: types.SegmentChampions})

	if len(got.Customers) != 2 {
		t.Fatalf("expected 2 champions, got %d", len(got.Customers))
	}
	if got.Segments[types.SegmentChampions] != 2 || len(got.Segments) != 1 {
		t.Errorf("unexpected segment counts: %v", got.Segments)
	}
	// top ranking recomputed over the subset
	if got.TopCustomers[0].CustomerID != "A" || got.TopCustomers[1].CustomerID != "C" {
		t.Errorf("unexpected top customers: %v", got.TopCustomers)
	}
	// restricted recommendations keep original values
	if _, ok := got.Recommendations["B"]; ok {
		t.Error("filtered-out customer still present in recommendations")
	}
	if !reflect.DeepEqual(got.Recommendations["A"], []string{"Feed"}) {
		t.Errorf("recommendation values changed: %v", got.Recommendations["A"])
	}
}

func TestApplyCombinedFilter(t *testing.T) {
	snap := testSnapshot()
	got := Apply(snap, types.ViewFilter{Segment: types.SegmentChampions, CustomerType: "retail"})

	if len(got.Customers) != 1 || got.Customers[0].CustomerID != "C" {
		t.Errorf("expected only C, got %v", got.Customers)
	}
}

func TestApplyPassThrough(t *testing.T) {
	snap := testSnapshot()
	snap.Transactions = []types.TransactionRecord{{CustomerID: "A"}}
	snap.Cohorts = types.CohortData{Cohorts: []string{"2024-01"}}
	snap.TimeSeries = []types.TimeSeriesPoint{{Date: "2024-01-01"}}

	got := Apply(snap, types.ViewFilter{Segment: types.SegmentLoyal})

	if len(got.Transactions) != 1 || len(got.Cohorts.Cohorts) != 1 || len(got.TimeSeries) != 1 {
		t.Error("transactions, cohorts, and time series must pass through unchanged")
	}
}

func TestApplyDoesNotMutateSnapshot(t *testing.T) {
	snap := testSnapshot()
	before := len(snap.Customers)

	got := Apply(snap, types.ViewFilter{Segment: types.SegmentChampions})
	got.Recommendations["A"][0] = "Tampered"
	if len(got.Customers) > 0 {
		got.Customers[0].CustomerID = "Z"
	}

	if len(snap.Customers) != before {
		t.Error("snapshot customer list changed")
	}
	if snap.Recommendations["A"][0] != "Feed" {
		t.Error("snapshot recommendation values changed through the view")
	}
	if snap.Customers[0].CustomerID != "A" {
		t.Error("snapshot customer mutated through the view")
	}
}

func TestSegmentCountsUnscored(t *testing.T) {
	customers := []types.CustomerSummary{
		{CustomerID: "A"},
		scored("B", types.SegmentLoyal, "farm", 1),
	}
	got := SegmentCounts(customers)
	if got["Unknown"] != 1 || got[types.SegmentLoyal] != 1 {
		t.Errorf("unexpected counts: %v", got)
	}
}

func TestTopByMonetaryStableTies(t *testing.T) {
	customers := []types.CustomerSummary{
		{CustomerID: "A", Monetary: 100},
		{CustomerID: "B", Monetary: 100},
		{CustomerID: "C", Monetary: 200},
	}
	got := TopByMonetary(customers, 2)

	if got[0].CustomerID != "C" || got[1].CustomerID != "A" {
		t.Errorf("expected C then A (stable tie), got %v", got)
	}
	if customers[0].CustomerID != "A" {
		t.Error("input slice was reordered")
	}
}

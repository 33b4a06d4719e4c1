package types

import "time"

// RetentionMonths is the number of month-offset buckets tracked per cohort.
const RetentionMonths = 12

// TopCustomerLimit is the size of the top-customer ranking in snapshots and
// filtered views.
const TopCustomerLimit = 100

// CohortData holds the cohort retention matrix for one ingestion run.
type CohortData struct {
	// Cohorts are "YYYY-MM" first-purchase-month keys, ascending
	Cohorts []string `json:"cohorts"`

	// RetentionMatrix has one row per cohort with RetentionMonths cells;
	// cell [i][o] is the percentage of cohort i's month-0 customers who
	// transacted again in offset month o
	RetentionMatrix [][]float64 `json:"retention_matrix"`

	// AverageRetention is the per-offset mean across cohorts
	AverageRetention []float64 `json:"average_retention"`
}

// TimeSeriesPoint is one calendar day with at least one completed
// transaction.
type TimeSeriesPoint struct {
	// Date is the ISO day ("YYYY-MM-DD")
	Date string `json:"date"`

	// Sales is the total net sales for the day
	Sales float64 `json:"sales"`

	// Customers is the count of distinct purchasing customers
	Customers int `json:"customers"`
}

// RecommendationMap maps a customer ID to an ordered list of at most five
// recommended product names.
type RecommendationMap map[string][]string

// SnapshotMeta describes the provenance of one ingestion run.
type SnapshotMeta struct {
	// RunID uniquely identifies the run
	RunID string `json:"run_id"`

	// GeneratedAt is the processing time used as "now" for recency
	GeneratedAt time.Time `json:"generated_at"`

	// CustomerFingerprint and TransactionFingerprint are murmur3-128
	// digests of the normalized input rows, hex encoded
	CustomerFingerprint    string `json:"customer_fingerprint"`
	TransactionFingerprint string `json:"transaction_fingerprint"`

	// CustomerRows and TransactionRows are normalized row counts; the
	// transaction count is after the completed-status filter
	CustomerRows    int `json:"customer_rows"`
	TransactionRows int `json:"transaction_rows"`

	// Defects is the number of data-quality conditions recovered during
	// normalization
	Defects int64 `json:"defects"`
}

// AnalyticsSnapshot is the immutable aggregate produced by one ingestion
// run. Consumers must never mutate it; derived views are computed as
// separate values.
type AnalyticsSnapshot struct {
	Customers       []CustomerSummary   `json:"customers"`
	Transactions    []TransactionRecord `json:"transactions"`
	Segments        map[string]int      `json:"segments"`
	TopCustomers    []CustomerSummary   `json:"top_customers"`
	Cohorts         CohortData          `json:"cohorts"`
	TimeSeries      []TimeSeriesPoint   `json:"time_series"`
	Recommendations RecommendationMap   `json:"recommendations"`
	Meta            SnapshotMeta        `json:"meta"`
}

// FilteredView is a snapshot-shaped projection computed from a subset of a
// snapshot's customers. Transactions, cohort data, and the time series are
// shared with the original snapshot; the remaining fields are recomputed
// over the subset.
type FilteredView struct {
	Filter          ViewFilter          `json:"filter"`
	Customers       []CustomerSummary   `json:"customers"`
	Transactions    []TransactionRecord `json:"transactions"`
	Segments        map[string]int      `json:"segments"`
	TopCustomers    []CustomerSummary   `json:"top_customers"`
	Cohorts         CohortData          `json:"cohorts"`
	TimeSeries      []TimeSeriesPoint   `json:"time_series"`
	Recommendations RecommendationMap   `json:"recommendations"`
}

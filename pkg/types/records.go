// Package types provides core data types for the Patrona analytics engine.
package types

import "time"

// Customer segment labels assigned by the RFM scorer, in priority order.
const (
	SegmentChampions         = "Champions"
	SegmentLoyal             = "Loyal"
	SegmentAtRisk            = "At Risk"
	SegmentHibernating       = "Hibernating"
	SegmentPotentialLoyalist = "Potential Loyalist"
)

// StatusCompleted is the only transaction status that participates in
// downstream computation; all other statuses are dropped at normalization.
const StatusCompleted = "completed"

// CustomerSummary is one per-customer record from the source system,
// keyed by CustomerID.
type CustomerSummary struct {
	// CustomerID uniquely identifies the customer
	CustomerID string `json:"customer_id"`

	// Frequency is the customer's total purchase count
	Frequency float64 `json:"frequency"`

	// Monetary is the customer's total spend
	Monetary float64 `json:"monetary"`

	// AvgOrderValue is the mean order value
	AvgOrderValue float64 `json:"avg_order_value"`

	// CustomerLifetimeDays is the age of the customer relationship in days
	CustomerLifetimeDays float64 `json:"customer_lifetime_days"`

	// PurchaseRate is the purchases-per-period rate supplied upstream
	PurchaseRate float64 `json:"purchase_rate"`

	// CustomerType is a free-text categorical (e.g. "new", "returning")
	CustomerType string `json:"customer_type"`

	// Attribution is the acquisition channel
	Attribution string `json:"attribution"`

	// TotalItemsSold is the lifetime item count
	TotalItemsSold float64 `json:"total_items_sold"`

	// Scores holds the derived RFM fields. It is nil until the scorer has
	// run; after one scoring pass every customer has a complete value.
	Scores *RFMScores `json:"scores,omitempty"`
}

// RFMScores holds the fields derived by the RFM scorer. They are attached
// to a CustomerSummary as a unit, never partially.
type RFMScores struct {
	// Recency is days since the last completed transaction, or
	// CustomerLifetimeDays when the customer has no transactions
	Recency int `json:"recency"`

	// R, F, M are quintile scores in 1..5
	R int `json:"r_score"`
	F int `json:"f_score"`
	M int `json:"m_score"`

	// Sum is R+F+M, in 3..15
	Sum int `json:"rfm_sum"`

	// Segment is one of the Segment* labels
	Segment string `json:"segment"`

	// Propensity is a composite purchase-likelihood score in 0..100
	Propensity int `json:"propensity"`
}

// TransactionRecord is one per-order event from the source system.
type TransactionRecord struct {
	// CustomerID references a CustomerSummary; it is not required to resolve
	CustomerID string `json:"customer_id"`

	// OrderNumber is the source order identifier
	OrderNumber string `json:"order_number"`

	// Date is the order timestamp in UTC
	Date time.Time `json:"date"`

	// Products is the raw delimited product text as supplied upstream
	Products string `json:"products"`

	// ItemsSold is the item count for the order
	ItemsSold float64 `json:"items_sold"`

	// Revenue is the gross order value
	Revenue float64 `json:"revenue"`

	// NetSales is the net order value
	NetSales float64 `json:"net_sales"`

	// Status is the order status; only "completed" records survive
	Status string `json:"status"`
}

// Package normalize turns raw source rows into canonical customer and
// transaction records. Column names are canonicalized, values coerced with
// defined fallbacks, and every recovered defect is counted rather than
// treated as fatal.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/patrona/patrona/internal/errors"
	"github.com/patrona/patrona/internal/observability"
	"github.com/patrona/patrona/pkg/types"
)

// excelEpochOffset is the day count between the spreadsheet serial epoch
// (1899-12-30) and the Unix epoch.
const excelEpochOffset = 25569

// dateLayouts are tried in order for calendar date strings.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// CanonicalKey lowercases a column name and replaces every character
// outside [a-z0-9] with an underscore. Runs are not collapsed:
// "Customer ID" → "customer_id", "Net.Sales!" → "net_sales_".
func CanonicalKey(key string) string {
	lower := strings.ToLower(key)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// CanonicalizeRow rewrites a raw row with canonical keys. On key collision
// the later column wins.
func CanonicalizeRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[CanonicalKey(k)] = v
	}
	return out
}

// Normalizer converts canonicalized rows into typed records. now anchors
// the fallback for unparseable dates; stats may be nil.
type Normalizer struct {
	now   time.Time
	stats *observability.RunStats
}

// New creates a Normalizer.
func New(now time.Time, stats *observability.RunStats) *Normalizer {
	return &Normalizer{now: now, stats: stats}
}

func (n *Normalizer) defect(code, field string) {
	if n.stats != nil {
		n.stats.RecordDefect(code, field)
	}
}

// Customers normalizes raw customer summary rows. Row order is preserved.
func (n *Normalizer) Customers(rows []map[string]any) []types.CustomerSummary {
	out := make([]types.CustomerSummary, 0, len(rows))
	for _, raw := range rows {
		row := CanonicalizeRow(raw)

		id := firstString(row, "customer_id", "customerid", "cust_id", "id")
		if id == "" {
			n.defect(errors.CodeMissingField, "customer_id")
		}

		out = append(out, types.CustomerSummary{
			CustomerID:           id,
			Frequency:            n.numberOr(row["frequency"], 0, "frequency"),
			Monetary:             n.numberOr(row["monetary"], 0, "monetary"),
			AvgOrderValue:        n.numberOr(row["avg_order_value"], 0, "avg_order_value"),
			CustomerLifetimeDays: n.numberOr(row["customer_lifetime_days"], 0, "customer_lifetime_days"),
			PurchaseRate:         n.numberOr(row["purchase_rate"], 0, "purchase_rate"),
			CustomerType:         stringOr(row["customer_type"], "unknown"),
			Attribution:          stringOr(row["attribution"], "Unknown"),
			TotalItemsSold:       n.numberOr(row["total_items_sold"], 0, "total_items_sold"),
		})
	}
	return out
}

// Transactions normalizes raw transaction rows and drops every record whose
// status is not completed. Input order is preserved for the survivors, which
// fixes cohort assignment downstream.
func (n *Normalizer) Transactions(rows []map[string]any) []types.TransactionRecord {
	out := make([]types.TransactionRecord, 0, len(rows))
	for _, raw := range rows {
		row := CanonicalizeRow(raw)

		id := firstString(row, "customer_id", "customerid", "cust_id")
		if id == "" {
			n.defect(errors.CodeMissingField, "customer_id")
		}

		rec := types.TransactionRecord{
			CustomerID:  id,
			OrderNumber: firstString(row, "order", "order_number"),
			Date:        n.parseDate(row["date"]),
			Products:    firstString(row, "products", "product"),
			ItemsSold:   n.numberOr(row["items_sold"], 1, "items_sold"),
			Revenue:     n.numberOr(row["revenue"], 0, "revenue"),
			Status:      stringOr(row["status"], types.StatusCompleted),
		}
		// Net sales falls back to revenue, then zero. A recorded zero also
		// falls through, matching the source system.
		rec.NetSales = n.numberOr(row["net_sales"], rec.Revenue, "net_sales")

		if rec.Status != types.StatusCompleted {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// parseDate resolves a raw date value: calendar parse first, then
// spreadsheet serial day count, then the processing time.
func (n *Normalizer) parseDate(v any) time.Time {
	switch d := v.(type) {
	case nil:
		n.defect(errors.CodeMissingField, "date")
		return n.now
	case time.Time:
		return d
	case float64:
		return serialDate(d)
	case int64:
		return serialDate(float64(d))
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			n.defect(errors.CodeMissingField, "date")
			return n.now
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			return serialDate(serial)
		}
		n.defect(errors.CodeInvalidDate, "date")
		return n.now
	default:
		n.defect(errors.CodeInvalidDate, "date")
		return n.now
	}
}

func serialDate(serial float64) time.Time {
	seconds := (serial - excelEpochOffset) * 86400
	return time.Unix(int64(seconds), 0).UTC()
}

// numberOr coerces v to a number; missing, unparseable, and zero values all
// yield the fallback.
func (n *Normalizer) numberOr(v any, fallback float64, field string) float64 {
	f, ok := toNumber(v)
	if !ok {
		if v != nil {
			n.defect(errors.CodeInvalidNumber, field)
		}
		return fallback
	}
	if f == 0 {
		return fallback
	}
	return f
}

func toNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, !math.IsNaN(x)
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// stringOr renders v as a string, substituting fallback for empty and
// otherwise-falsy values.
func stringOr(v any, fallback string) string {
	s := asString(v)
	if s == "" {
		return fallback
	}
	return s
}

// firstString returns the first key whose value renders non-empty.
func firstString(row map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := asString(row[k]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		if x == 0 {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		if x == 0 {
			return ""
		}
		return strconv.FormatInt(x, 10)
	case int:
		if x == 0 {
			return ""
		}
		return strconv.Itoa(x)
	default:
		return ""
	}
}

// Package timeseries rolls completed transactions up into a daily series
// of net sales and distinct active customers.
package timeseries

import (
	"sort"

	"github.com/patrona/patrona/pkg/types"
)

// Aggregate groups transactions by UTC calendar day. Sales sum net sales;
// customers count distinct customer ids per day. Output is sorted by date
// ascending.
func Aggregate(transactions []types.TransactionRecord) []types.TimeSeriesPoint {
	type daily struct {
		sales     float64
		customers map[string]struct{}
	}

	days := make(map[string]*daily)
	for _, t := range transactions {
		key := t.Date.UTC().Format("2006-01-02")
		d, ok := days[key]
		if !ok {
			d = &daily{customers: make(map[string]struct{})}
			days[key] = d
		}
		d.sales += t.NetSales
		d.customers[t.CustomerID] = struct{}{}
	}

	out := make([]types.TimeSeriesPoint, 0, len(days))
	for key, d := range days {
		out = append(out, types.TimeSeriesPoint{
			Date:      key,
			Sales:     d.sales,
			Customers: len(d.customers),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

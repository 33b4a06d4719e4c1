// Package view derives filtered projections from an analytics snapshot
// without recomputing scores or mutating the snapshot.
package view

import (
	"sort"

	"github.com/patrona/patrona/pkg/types"
)

// SegmentCounts tallies customers per segment label. Unscored customers
// count under "Unknown".
func SegmentCounts(customers []types.CustomerSummary) map[string]int {
	out := make(map[string]int)
	for _, c := range customers {
		label := "Unknown"
		if c.Scores != nil && c.Scores.Segment != "" {
			label = c.Scores.Segment
		}
		out[label]++
	}
	return out
}

// TopByMonetary returns up to limit customers ranked by monetary value
// descending. Ties keep input order. The input slice is not reordered.
func TopByMonetary(customers []types.CustomerSummary, limit int) []types.CustomerSummary {
	ranked := make([]types.CustomerSummary, len(customers))
	copy(ranked, customers)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Monetary > ranked[j].Monetary
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Apply selects the customers matching the filter and recomputes the
// filter-sensitive projections. Transactions, cohorts, and the time series
// are not filter-sensitive and pass through unchanged. Recommendation lists
// are copied for the surviving customers, never regenerated. An empty
// filter reproduces the snapshot's own projections exactly.
func Apply(snap *types.AnalyticsSnapshot, filter types.ViewFilter) *types.FilteredView {
	matched := make([]types.CustomerSummary, 0, len(snap.Customers))
	for _, c := range snap.Customers {
		if filter.Matches(&c) {
			matched = append(matched, c)
		}
	}

	recommendations := make(types.RecommendationMap, len(matched))
	for _, c := range matched {
		if list, ok := snap.Recommendations[c.CustomerID]; ok {
			recommendations[c.CustomerID] = append([]string(nil), list...)
		}
	}

	return &types.FilteredView{
		Filter:          filter,
		Customers:       matched,
		Transactions:    snap.Transactions,
		Segments:        SegmentCounts(matched),
		TopCustomers:    TopByMonetary(matched, types.TopCustomerLimit),
		Cohorts:         snap.Cohorts,
		TimeSeries:      snap.TimeSeries,
		Recommendations: recommendations,
	}
}

// Package rfm scores customers on recency, frequency, and monetary value
// using population quintiles, then assigns a segment label and a purchase
// propensity.
package rfm

import (
	"math"
	"sort"
	"time"

	"github.com/patrona/patrona/pkg/types"
)

// Score populates derived scoring fields on every customer in place and
// returns the same slice. An empty customer set is returned unscored. The
// pass is all-or-nothing: after a non-empty call every customer carries a
// complete score block.
func Score(now time.Time, customers []types.CustomerSummary, transactions []types.TransactionRecord) []types.CustomerSummary {
	if len(customers) == 0 {
		return customers
	}

	lastPurchase := make(map[string]time.Time, len(customers))
	for _, t := range transactions {
		if existing, ok := lastPurchase[t.CustomerID]; !ok || t.Date.After(existing) {
			lastPurchase[t.CustomerID] = t.Date
		}
	}

	recencies := make([]float64, len(customers))
	frequencies := make([]float64, len(customers))
	monetaries := make([]float64, len(customers))
	for i := range customers {
		c := &customers[i]
		var recency int
		if last, ok := lastPurchase[c.CustomerID]; ok {
			recency = int(math.Floor(now.Sub(last).Hours() / 24))
		} else {
			recency = int(c.CustomerLifetimeDays)
		}
		c.Scores = &types.RFMScores{Recency: recency}

		recencies[i] = float64(recency)
		frequencies[i] = c.Frequency
		monetaries[i] = c.Monetary
	}
	sort.Float64s(recencies)
	sort.Float64s(frequencies)
	sort.Float64s(monetaries)

	for i := range customers {
		s := customers[i].Scores
		s.R = quintile(float64(s.Recency), recencies, true)
		s.F = quintile(customers[i].Frequency, frequencies, false)
		s.M = quintile(customers[i].Monetary, monetaries, false)
		s.Sum = s.R + s.F + s.M
		s.Segment = segmentFor(s.R, s.F, s.M)
		s.Propensity = propensity(s.R, s.F, s.M, s.Recency)
	}
	return customers
}

// quintile returns a 1-5 score for v against the ascending population.
// The base score rises past each breakpoint v strictly exceeds; recency
// reverses the scale so that more recent (lower) values score higher.
func quintile(v float64, sorted []float64, reverse bool) int {
	n := len(sorted)
	breakpoints := [4]float64{
		sorted[int(math.Floor(float64(n)*0.2))],
		sorted[int(math.Floor(float64(n)*0.4))],
		sorted[int(math.Floor(float64(n)*0.6))],
		sorted[int(math.Floor(float64(n)*0.8))],
	}

	score := 1
	for i, bp := range breakpoints {
		if v > bp {
			score = i + 2
		}
	}
	if reverse {
		return 6 - score
	}
	return score
}

// segmentFor assigns the first matching segment in priority order.
func segmentFor(r, f, m int) string {
	switch {
	case r >= 4 && f >= 4 && m >= 4:
		return types.SegmentChampions
	case r >= 3 && f >= 3 && m >= 3:
		return types.SegmentLoyal
	case r <= 2 && f >= 3:
		return types.SegmentAtRisk
	case r <= 2 && f <= 2:
		return types.SegmentHibernating
	default:
		return types.SegmentPotentialLoyalist
	}
}

// propensity combines the three scores with a recency bonus into a 0-100
// integer, clamped at 100.
func propensity(r, f, m, recency int) int {
	raw := float64(r*10+f*8+m*7) + 100/float64(recency+1)
	rounded := math.Round(raw)
	if rounded > 100 {
		return 100
	}
	return int(rounded)
}

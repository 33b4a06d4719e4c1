// Package cohort buckets customers into monthly acquisition cohorts and
// computes a 12-period retention matrix.
package cohort

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/patrona/patrona/pkg/types"
)

// Retention assigns each customer to the month of their first transaction
// in input order, then measures what share of each cohort is still active
// at 30-day offsets 0 through 11. Offsets are day-based, not calendar
// months, so a cohort's own first month is offset 0 and always reads 100%
// for non-empty cohorts.
func Retention(transactions []types.TransactionRecord) types.CohortData {
	customerCohorts := make(map[string]string)
	for _, t := range transactions {
		if _, ok := customerCohorts[t.CustomerID]; !ok {
			customerCohorts[t.CustomerID] = monthKey(t.Date)
		}
	}

	cohortSet := make(map[string]struct{}, len(customerCohorts))
	for _, c := range customerCohorts {
		cohortSet[c] = struct{}{}
	}
	cohorts := make([]string, 0, len(cohortSet))
	for c := range cohortSet {
		cohorts = append(cohorts, c)
	}
	sort.Strings(cohorts)

	activity := make(map[string][]map[string]struct{}, len(cohorts))
	for _, c := range cohorts {
		buckets := make([]map[string]struct{}, types.RetentionMonths)
		for i := range buckets {
			buckets[i] = make(map[string]struct{})
		}
		activity[c] = buckets
	}

	for _, t := range transactions {
		c := customerCohorts[t.CustomerID]
		offset := monthOffset(cohortStart(c), t.Date)
		if offset >= 0 && offset < types.RetentionMonths {
			activity[c][offset][t.CustomerID] = struct{}{}
		}
	}

	matrix := make([][]float64, 0, len(cohorts))
	for _, c := range cohorts {
		buckets := activity[c]
		size := len(buckets[0])
		row := make([]float64, types.RetentionMonths)
		for i, bucket := range buckets {
			if size > 0 {
				row[i] = float64(len(bucket)) / float64(size) * 100
			}
		}
		matrix = append(matrix, row)
	}

	average := make([]float64, types.RetentionMonths)
	if len(matrix) > 0 {
		for i := 0; i < types.RetentionMonths; i++ {
			var sum float64
			for _, row := range matrix {
				sum += row[i]
			}
			average[i] = sum / float64(len(matrix))
		}
	}

	return types.CohortData{
		Cohorts:          cohorts,
		RetentionMatrix:  matrix,
		AverageRetention: average,
	}
}

func monthKey(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%04d-%02d", u.Year(), int(u.Month()))
}

func cohortStart(key string) time.Time {
	var year, month int
	fmt.Sscanf(key, "%d-%d", &year, &month)
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// monthOffset counts elapsed 30-day periods from the cohort's first day.
func monthOffset(start, t time.Time) int {
	days := t.UTC().Sub(start).Hours() / 24
	return int(math.Floor(days / 30))
}

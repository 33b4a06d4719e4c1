// Package engine runs the full analytics pipeline over normalized records
// and holds the resulting immutable snapshot.
package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/patrona/patrona/internal/analytics/cohort"
	"github.com/patrona/patrona/internal/analytics/recommend"
	"github.com/patrona/patrona/internal/analytics/rfm"
	"github.com/patrona/patrona/internal/analytics/timeseries"
	"github.com/patrona/patrona/internal/analytics/view"
	"github.com/patrona/patrona/internal/errors"
	"github.com/patrona/patrona/internal/observability"
	"github.com/patrona/patrona/pkg/types"
)

// SourceInfo carries provenance for the snapshot's metadata block.
type SourceInfo struct {
	CustomerFingerprint    string
	TransactionFingerprint string
	CustomerRows           int
	TransactionRows        int
}

// Build scores customers, derives cohorts, the time series, and
// recommendations over one normalized record set, and assembles the
// snapshot. Inputs are fully materialized; the build is single-threaded
// and the result is never mutated afterwards.
func Build(now time.Time, customers []types.CustomerSummary, transactions []types.TransactionRecord, src SourceInfo, stats *observability.RunStats) *types.AnalyticsSnapshot {
	scored := rfm.Score(now, customers, transactions)

	meta := types.SnapshotMeta{
		RunID:                  uuid.NewString(),
		GeneratedAt:            now,
		CustomerFingerprint:    src.CustomerFingerprint,
		TransactionFingerprint: src.TransactionFingerprint,
		CustomerRows:           src.CustomerRows,
		TransactionRows:        src.TransactionRows,
	}
	if stats != nil {
		meta.Defects = stats.DefectCount()
	}

	return &types.AnalyticsSnapshot{
		Customers:       scored,
		Transactions:    transactions,
		Segments:        view.SegmentCounts(scored),
		TopCustomers:    view.TopByMonetary(scored, types.TopCustomerLimit),
		Cohorts:         cohort.Retention(transactions),
		TimeSeries:      timeseries.Aggregate(transactions),
		Recommendations: recommend.Recommendations(transactions),
		Meta:            meta,
	}
}

// Store holds the current snapshot. Replacing it swaps the pointer;
// readers holding the previous snapshot keep a consistent immutable value.
type Store struct {
	mu      sync.RWMutex
	current *types.AnalyticsSnapshot
}

// NewStore creates an empty snapshot store.
func NewStore() *Store {
	return &Store{}
}

// Current returns the latest snapshot, or a NO_SNAPSHOT error before the
// first completed build.
func (s *Store) Current() (*types.AnalyticsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, errors.NewAnalyticsError(errors.CodeNoSnapshot, "no analytics snapshot built yet")
	}
	return s.current, nil
}

// Replace installs a newly built snapshot.
func (s *Store) Replace(snap *types.AnalyticsSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = snap
}

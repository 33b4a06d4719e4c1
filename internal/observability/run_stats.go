// Package observability provides run statistics tracking for ingestion and
// snapshot builds.
package observability

import (
	"sort"
	"sync"
	"time"
)

// RunStats tracks row counts, recovered data-quality defects, and stage
// durations for one ingestion run. All methods are thread-safe so the two
// concurrent source fetches can report into the same tracker.
type RunStats struct {
	mu         sync.RWMutex
	rowsRead   map[string]int64
	defects    map[string]*DefectStats
	stageTimes map[string]time.Duration
}

// DefectStats holds counts for one recovered data-quality defect code.
type DefectStats struct {
	Code     string
	Count    int64
	LastSeen time.Time
	Fields   map[string]int64 // field name → count
}

// NewRunStats creates a new run statistics tracker.
func NewRunStats() *RunStats {
	return &RunStats{
		rowsRead:   make(map[string]int64),
		defects:    make(map[string]*DefectStats),
		stageTimes: make(map[string]time.Duration),
	}
}

// RecordRows records rows read from a source ("customers", "transactions").
func (r *RunStats) RecordRows(source string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rowsRead[source] += int64(n)
}

// RecordDefect records a recovered data-quality defect.
// code: the defect code (e.g. "INVALID_DATE")
// field: the canonical field the fallback applied to
func (r *RunStats) RecordDefect(code, field string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, exists := r.defects[code]
	if !exists {
		stats = &DefectStats{
			Code:   code,
			Fields: make(map[string]int64),
		}
		r.defects[code] = stats
	}

	stats.Count++
	stats.LastSeen = time.Now()
	stats.Fields[field]++
}

// RecordStage records the wall-clock duration of a pipeline stage.
func (r *RunStats) RecordStage(stage string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stageTimes[stage] += d
}

// TimeStage runs fn and records its duration under stage.
func (r *RunStats) TimeStage(stage string, fn func()) {
	start := time.Now()
	fn()
	r.RecordStage(stage, time.Since(start))
}

// RowsRead returns the rows read for a source.
func (r *RunStats) RowsRead(source string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rowsRead[source]
}

// DefectCount returns the total recovered defect count across all codes.
func (r *RunStats) DefectCount() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, s := range r.defects {
		total += s.Count
	}
	return total
}

// TopDefects returns the top N defect codes by count, descending.
// Returns copies; callers cannot mutate tracker state.
func (r *RunStats) TopDefects(n int) []DefectStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n <= 0 || len(r.defects) == 0 {
		return []DefectStats{}
	}

	out := make([]DefectStats, 0, len(r.defects))
	for _, s := range r.defects {
		cp := DefectStats{
			Code:     s.Code,
			Count:    s.Count,
			LastSeen: s.LastSeen,
			Fields:   make(map[string]int64, len(s.Fields)),
		}
		for k, v := range s.Fields {
			cp.Fields[k] = v
		}
		out = append(out, cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Code < out[j].Code
	})

	if len(out) > n {
		out = out[:n]
	}
	return out
}

// StageDuration returns the accumulated duration for a stage.
func (r *RunStats) StageDuration(stage string) time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stageTimes[stage]
}

// Summary is a point-in-time copy of the tracker, suitable for logging and
// for the run-complete notification.
type Summary struct {
	RowsRead map[string]int64         `json:"rows_read"`
	Defects  map[string]int64         `json:"defects"`
	Stages   map[string]time.Duration `json:"stages"`
}

// Snapshot returns a copy of all counters.
func (r *RunStats) Snapshot() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Summary{
		RowsRead: make(map[string]int64, len(r.rowsRead)),
		Defects:  make(map[string]int64, len(r.defects)),
		Stages:   make(map[string]time.Duration, len(r.stageTimes)),
	}
	for k, v := range r.rowsRead {
		s.RowsRead[k] = v
	}
	for k, v := range r.defects {
		s.Defects[k] = v.Count
	}
	for k, v := range r.stageTimes {
		s.Stages[k] = v
	}
	return s
}

package pipeline

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at         time.Time
	status     JobStatus
	durationMs int64
}

// StatsSnapshot aggregates the import runs inside the stats window.
// Durations cover completed runs only.
type StatsSnapshot struct {
	Count     int     `json:"count"`
	Failed    int     `json:"failed"`
	Skipped   int     `json:"duplicate_skipped"`
	MinMs     int64   `json:"min_ms"`
	MaxMs     int64   `json:"max_ms"`
	AvgMs     float64 `json:"avg_ms"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
	WindowSec int64   `json:"window_sec"`
}

// ImportStats keeps recent import outcomes within a rolling window.
type ImportStats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewImportStats(maxAge time.Duration) *ImportStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &ImportStats{
		samples: make([]sample, 0, 64),
		maxAge:  maxAge,
	}
}

// Record adds a finished run.
func (s *ImportStats) Record(status JobStatus, d time.Duration) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{at: now, status: status, durationMs: ms})
}

func (s *ImportStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	snap := StatsSnapshot{WindowSec: int64(s.maxAge / time.Second)}

	var values []int64
	var sum int64
	for _, sm := range s.samples {
		switch sm.status {
		case StatusCompleted:
			values = append(values, sm.durationMs)
			sum += sm.durationMs
		case StatusFailed:
			snap.Failed++
		case StatusDupSkipped:
			snap.Skipped++
		}
	}
	if len(values) == 0 {
		return snap
	}
	slices.Sort(values)

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	return snap
}

func (s *ImportStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool {
		return sm.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the two closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	index := float64(len(sorted)-1) * pct / 100
	lower := int(index)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*weight
}

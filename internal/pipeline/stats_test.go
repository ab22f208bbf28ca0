package pipeline

import (
	"testing"
	"time"
)

func TestImportStatsSnapshotPercentiles(t *testing.T) {
	stats := NewImportStats(time.Hour)
	for _, ms := range []int{100, 200, 300, 400, 500} {
		stats.Record(StatusCompleted, time.Duration(ms)*time.Millisecond)
	}
	stats.Record(StatusFailed, time.Second)
	stats.Record(StatusDupSkipped, time.Millisecond)

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.Failed != 1 || snap.Skipped != 1 {
		t.Fatalf("expected failed=1 skipped=1, got %d %d", snap.Failed, snap.Skipped)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got %d %d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.WindowSec != 3600 {
		t.Fatalf("expected window=3600, got %d", snap.WindowSec)
	}
}

func TestImportStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewImportStats(10 * time.Millisecond)
	stats.Record(StatusCompleted, 100*time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record(StatusCompleted, 200*time.Millisecond)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected one 200ms sample, got %+v", snap)
	}
}

func TestImportStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewImportStats(time.Hour)
	stats.Record(StatusCompleted, -10*time.Millisecond)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 0 {
		t.Fatalf("expected one clamped sample, got %+v", snap)
	}
}

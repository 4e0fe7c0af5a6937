package metrics

import (
	"testing"
	"time"
)

func TestMetrics(t *testing.T) {
	m := New()
	if !m.Healthy() {
		t.Fatalf("new metrics should be healthy")
	}

	m.AddReceived(10)
	m.IncrementSkipped()
	m.AddDuplicatesRemoved(2)
	m.AddRanked(7)
	m.RecordProcessingTime(100 * time.Millisecond)
	m.RecordProcessingTime(300 * time.Millisecond)

	stats := m.GetStats()
	checks := map[string]interface{}{
		"items_received":             int64(10),
		"items_skipped":              int64(1),
		"duplicates_removed":         int64(2),
		"items_ranked":               int64(7),
		"last_processing_time_ms":    int64(300),
		"average_processing_time_ms": int64(200),
	}
	for key, want := range checks {
		if stats[key] != want {
			t.Errorf("%s = %v, want %v", key, stats[key], want)
		}
	}

	m.SetError("boom")
	if m.Healthy() {
		t.Errorf("SetError should mark unhealthy")
	}
	m.SetLastRun("run-1")
	if !m.Healthy() || m.GetStats()["last_run_id"] != "run-1" {
		t.Errorf("SetLastRun should restore health and record the run")
	}
}

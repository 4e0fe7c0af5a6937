package metrics

import (
	"sync"
	"time"
)

// Metrics is created once per process and shared by reference.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	ItemsReceived      int64
	ItemsSkipped       int64
	DuplicatesRemoved  int64
	ItemsRanked        int64
	Fallbacks          int64
	SummariesGenerated int64
	SummariesFailed    int64
	ItemsPublished     int64
	TelegramMessages   int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunID     string
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

func (m *Metrics) AddReceived(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsReceived += int64(n)
}

func (m *Metrics) IncrementSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsSkipped++
}

func (m *Metrics) AddDuplicatesRemoved(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesRemoved += int64(n)
}

func (m *Metrics) AddRanked(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsRanked += int64(n)
}

func (m *Metrics) IncrementFallbacks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Fallbacks++
}

func (m *Metrics) IncrementSummaries() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummariesGenerated++
}

func (m *Metrics) IncrementFailedSummaries() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummariesFailed++
}

func (m *Metrics) AddPublished(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsPublished += int64(n)
}

func (m *Metrics) IncrementTelegramMessages() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TelegramMessages++
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
}

func (m *Metrics) SetLastRun(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunID = runID
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"items_received":             m.ItemsReceived,
		"items_skipped":              m.ItemsSkipped,
		"duplicates_removed":         m.DuplicatesRemoved,
		"items_ranked":               m.ItemsRanked,
		"fallbacks":                  m.Fallbacks,
		"summaries_generated":        m.SummariesGenerated,
		"summaries_failed":           m.SummariesFailed,
		"items_published":            m.ItemsPublished,
		"telegram_messages_sent":     m.TelegramMessages,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_id":                m.LastRunID,
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}

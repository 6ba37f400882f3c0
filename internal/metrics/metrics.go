package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	SourcesFetched     int64
	SourcesFailed      int64
	EntriesCollected   int64
	DuplicatesFiltered int64
	ItemsSelected      int64
	ItemsArchived      int64
	EnrichmentCalls    int64
	EnrichmentTokens   int64

	// Status
	LastRunTime   time.Time
	LastRunTook   time.Duration
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) RecordSource(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.SourcesFetched++
	} else {
		m.SourcesFailed++
	}
}

func (m *Metrics) AddEntriesCollected(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesCollected += int64(n)
}

func (m *Metrics) AddDuplicatesFiltered(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered += int64(n)
}

func (m *Metrics) AddItemsSelected(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsSelected += int64(n)
}

func (m *Metrics) AddItemsArchived(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsArchived += int64(n)
}

func (m *Metrics) AddEnrichment(calls int, tokens int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnrichmentCalls += int64(calls)
	m.EnrichmentTokens += tokens
}

func (m *Metrics) SetLastRun(took time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.LastRunTook = took
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"sources_fetched":     m.SourcesFetched,
		"sources_failed":      m.SourcesFailed,
		"entries_collected":   m.EntriesCollected,
		"duplicates_filtered": m.DuplicatesFiltered,
		"items_selected":      m.ItemsSelected,
		"items_archived":      m.ItemsArchived,
		"enrichment_calls":    m.EnrichmentCalls,
		"enrichment_tokens":   m.EnrichmentTokens,
		"last_run_time":       m.LastRunTime.Format(time.RFC3339),
		"last_run_took_ms":    m.LastRunTook.Milliseconds(),
		"last_error_time":     m.LastErrorTime.Format(time.RFC3339),
		"last_error":          m.LastError,
		"is_healthy":          m.IsHealthy,
	}
}

// Package metrics provides real-time client statistics for the stats panel.
package metrics

import (
	"sync"
	"time"
)

// TableStats tracks fetch activity for one remote table.
type TableStats struct {
	Table     string
	Fetches   int64
	Errors    int64
	Refetches int64
	Coalesced int64
	LastSync  time.Time
}

// Snapshot is a point-in-time view of client activity.
type Snapshot struct {
	FetchesTotal   int64
	ErrorsTotal    int64
	Tables         map[string]*TableStats
	RealtimeStatus string
	Uptime         time.Duration
}

// Tracker provides thread-safe client statistics tracking.
type Tracker struct {
	mu             sync.RWMutex
	tables         map[string]*TableStats
	fetchesTotal   int64
	errorsTotal    int64
	realtimeStatus string
	startTime      time.Time
}

// NewTracker creates a new Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		tables:         make(map[string]*TableStats),
		realtimeStatus: "disconnected",
		startTime:      time.Now(),
	}
}

// RecordFetch counts one completed gateway read for a table.
func (t *Tracker) RecordFetch(table string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := t.tableStats(table)
	if err != nil {
		stats.Errors++
		t.errorsTotal++
		return
	}
	stats.Fetches++
	stats.LastSync = time.Now()
	t.fetchesTotal++
}

// RecordRefetch counts one completed refetch pass for a table.
func (t *Tracker) RecordRefetch(table string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := t.tableStats(table)
	stats.Refetches++
	stats.LastSync = time.Now()
}

// RecordCoalesced counts a notification absorbed into an in-flight
// refetch pass.
func (t *Tracker) RecordCoalesced(table string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tableStats(table).Coalesced++
}

// SetRealtimeStatus records the websocket connection state.
func (t *Tracker) SetRealtimeStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.realtimeStatus = status
}

// Snapshot returns a point-in-time copy of the statistics.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tablesCopy := make(map[string]*TableStats, len(t.tables))
	for name, stats := range t.tables {
		statsCopy := *stats
		tablesCopy[name] = &statsCopy
	}

	return Snapshot{
		FetchesTotal:   t.fetchesTotal,
		ErrorsTotal:    t.errorsTotal,
		Tables:         tablesCopy,
		RealtimeStatus: t.realtimeStatus,
		Uptime:         time.Since(t.startTime),
	}
}

// tableStats returns the stats entry for a table, creating it on
// first use. Must be called with the lock held.
func (t *Tracker) tableStats(table string) *TableStats {
	stats, ok := t.tables[table]
	if !ok {
		stats = &TableStats{Table: table}
		t.tables[table] = stats
	}
	return stats
}

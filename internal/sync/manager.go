// Package sync coordinates refetching between views and the gateway.
//
// Views register a refetch callback per table. The manager runs every
// callback on one shared periodic cadence and again whenever a
// realtime change notification names the table. Notifications
// arriving while a refetch is in flight coalesce into exactly one
// follow-up run instead of stacking redundant fetches.
package sync

import (
	"context"
	"log/slog"
	stdsync "sync"
	"time"

	"github.com/mothmanmarket/mothman/internal/gateway"
)

// Refetch is a view's table reload. It must honor ctx cancellation;
// the manager cancels outstanding work on Stop and on Unsubscribe.
type Refetch func(ctx context.Context)

// Stats observes manager activity. Implemented by metrics.Tracker.
type Stats interface {
	RecordRefetch(table string)
	RecordCoalesced(table string)
}

type subscriber struct {
	id int
	fn Refetch
}

type tableState struct {
	subscribers []subscriber
	inFlight    bool
	dirty       bool
}

// Manager is the single data-synchronization point for all views.
type Manager struct {
	mu       stdsync.Mutex
	tables   map[string]*tableState
	nextID   int
	interval time.Duration
	stats    Stats

	ctx    context.Context
	cancel context.CancelFunc
	wg     stdsync.WaitGroup
}

// NewManager creates a manager that refetches every registered table
// on the given interval. stats may be nil.
func NewManager(interval time.Duration, stats Stats) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		tables:   make(map[string]*tableState),
		interval: interval,
		stats:    stats,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Subscribe registers a refetch for a table and runs it once
// immediately. The returned cancel func deregisters it; views call it
// on teardown.
func (m *Manager) Subscribe(table string, fn Refetch) (cancel func()) {
	m.mu.Lock()
	state, ok := m.tables[table]
	if !ok {
		state = &tableState{}
		m.tables[table] = state
	}
	m.nextID++
	id := m.nextID
	state.subscribers = append(state.subscribers, subscriber{id: id, fn: fn})
	m.mu.Unlock()

	m.trigger(table)

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		state, ok := m.tables[table]
		if !ok {
			return
		}
		for i, sub := range state.subscribers {
			if sub.id == id {
				state.subscribers = append(state.subscribers[:i], state.subscribers[i+1:]...)
				break
			}
		}
	}
}

// Run consumes change notifications and drives the shared periodic
// cadence until ctx is done.
func (m *Manager) Run(ctx context.Context, changes <-chan gateway.Change) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			m.trigger(change.Table)
		case <-ticker.C:
			for _, table := range m.registeredTables() {
				m.trigger(table)
			}
		}
	}
}

// Trigger forces a refetch of one table, as after a successful
// mutation when the caller wants fresh rows without waiting for the
// next tick.
func (m *Manager) Trigger(table string) {
	m.trigger(table)
}

// Stop cancels all in-flight refetches and waits for them.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
}

// trigger starts one refetch pass for a table, or marks it dirty when
// a pass is already running.
func (m *Manager) trigger(table string) {
	m.mu.Lock()
	state, ok := m.tables[table]
	if !ok || len(state.subscribers) == 0 {
		m.mu.Unlock()
		return
	}
	if state.inFlight {
		state.dirty = true
		m.mu.Unlock()
		if m.stats != nil {
			m.stats.RecordCoalesced(table)
		}
		slog.Debug("refetch_coalesced", "table", table)
		return
	}
	state.inFlight = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.runPass(table)
}

// runPass executes every subscriber for a table, then reruns once if
// notifications arrived mid-pass.
func (m *Manager) runPass(table string) {
	defer m.wg.Done()

	for {
		m.mu.Lock()
		state, ok := m.tables[table]
		if !ok {
			m.mu.Unlock()
			return
		}
		subs := make([]subscriber, len(state.subscribers))
		copy(subs, state.subscribers)
		m.mu.Unlock()

		for _, sub := range subs {
			select {
			case <-m.ctx.Done():
				m.finishPass(table)
				return
			default:
			}
			sub.fn(m.ctx)
		}

		if m.stats != nil {
			m.stats.RecordRefetch(table)
		}

		m.mu.Lock()
		if !state.dirty {
			state.inFlight = false
			m.mu.Unlock()
			return
		}
		state.dirty = false
		m.mu.Unlock()
	}
}

// finishPass clears in-flight state when a pass aborts early.
func (m *Manager) finishPass(table string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.tables[table]; ok {
		state.inFlight = false
		state.dirty = false
	}
}

// registeredTables snapshots the table names with live subscribers.
func (m *Manager) registeredTables() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	tables := make([]string, 0, len(m.tables))
	for name, state := range m.tables {
		if len(state.subscribers) > 0 {
			tables = append(tables, name)
		}
	}
	return tables
}

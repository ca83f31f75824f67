package sync

import (
	"context"
	stdsync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mothmanmarket/mothman/internal/gateway"
)

type countingStats struct {
	refetches int64
	coalesced int64
}

func (s *countingStats) RecordRefetch(string)   { atomic.AddInt64(&s.refetches, 1) }
func (s *countingStats) RecordCoalesced(string) { atomic.AddInt64(&s.coalesced, 1) }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSubscribeRunsImmediately(t *testing.T) {
	m := NewManager(time.Hour, nil)
	defer m.Stop()

	var calls int64
	m.Subscribe("bets", func(ctx context.Context) {
		atomic.AddInt64(&calls, 1)
	})

	waitFor(t, func() bool { return atomic.LoadInt64(&calls) == 1 })
}

func TestChangeNotificationTriggersRefetch(t *testing.T) {
	m := NewManager(time.Hour, nil)
	defer m.Stop()

	var calls int64
	m.Subscribe("bets", func(ctx context.Context) {
		atomic.AddInt64(&calls, 1)
	})
	waitFor(t, func() bool { return atomic.LoadInt64(&calls) == 1 })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan gateway.Change, 1)
	go m.Run(ctx, changes)

	changes <- gateway.Change{Table: "bets", Event: "INSERT"}
	waitFor(t, func() bool { return atomic.LoadInt64(&calls) == 2 })
}

func TestNotificationForUnsubscribedTableIsIgnored(t *testing.T) {
	m := NewManager(time.Hour, nil)
	defer m.Stop()

	var calls int64
	m.Subscribe("bets", func(ctx context.Context) {
		atomic.AddInt64(&calls, 1)
	})
	waitFor(t, func() bool { return atomic.LoadInt64(&calls) == 1 })

	m.Trigger("profiles")
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("expected no extra runs, got %d", got)
	}
}

func TestCoalescingDuringInFlightPass(t *testing.T) {
	stats := &countingStats{}
	m := NewManager(time.Hour, stats)
	defer m.Stop()

	var calls int64
	var mu stdsync.Mutex
	block := make(chan struct{})
	first := true

	m.Subscribe("bets", func(ctx context.Context) {
		atomic.AddInt64(&calls, 1)
		mu.Lock()
		wait := first
		first = false
		mu.Unlock()
		if wait {
			<-block
		}
	})
	waitFor(t, func() bool { return atomic.LoadInt64(&calls) == 1 })

	// Three notifications land while the first pass is blocked; they
	// must fold into exactly one follow-up run.
	m.Trigger("bets")
	m.Trigger("bets")
	m.Trigger("bets")
	close(block)

	waitFor(t, func() bool { return atomic.LoadInt64(&calls) == 2 })
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt64(&calls); got != 2 {
		t.Errorf("expected exactly one follow-up run, got %d total", got)
	}
	if got := atomic.LoadInt64(&stats.coalesced); got != 3 {
		t.Errorf("expected 3 coalesced notifications recorded, got %d", got)
	}
}

func TestUnsubscribeStopsRefetches(t *testing.T) {
	m := NewManager(time.Hour, nil)
	defer m.Stop()

	var calls int64
	cancel := m.Subscribe("bets", func(ctx context.Context) {
		atomic.AddInt64(&calls, 1)
	})
	waitFor(t, func() bool { return atomic.LoadInt64(&calls) == 1 })

	cancel()
	m.Trigger("bets")
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("expected no runs after unsubscribe, got %d", got)
	}
}

func TestPeriodicTick(t *testing.T) {
	m := NewManager(20*time.Millisecond, nil)
	defer m.Stop()

	var calls int64
	m.Subscribe("bets", func(ctx context.Context) {
		atomic.AddInt64(&calls, 1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx, make(chan gateway.Change))

	waitFor(t, func() bool { return atomic.LoadInt64(&calls) >= 3 })
}

func TestStopCancelsContext(t *testing.T) {
	m := NewManager(time.Hour, nil)

	started := make(chan struct{})
	done := make(chan struct{})
	m.Subscribe("bets", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(done)
	})

	<-started
	m.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refetch context was not cancelled by Stop")
	}
}

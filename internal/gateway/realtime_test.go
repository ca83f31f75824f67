package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newWSServer runs a websocket endpoint that accepts the connection
// and discards incoming frames.
func newWSServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		go func() {
			defer conn.Close()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestHeartbeatExitsOnDisconnect(t *testing.T) {
	srv := newWSServer(t)
	defer srv.Close()

	l := NewListener(wsURL(srv), "key", []string{"bets"}, make(chan Change, 8), nil)
	ctx := context.Background()

	// Two connect/disconnect cycles, as in a connection flap. Each
	// connect spawns one heartbeat loop; every loop must exit when its
	// connection closes rather than surviving into the next one.
	if err := l.connect(ctx); err != nil {
		t.Fatalf("first connect: %v", err)
	}
	l.closeConnection()

	if err := l.connect(ctx); err != nil {
		t.Fatalf("second connect: %v", err)
	}
	l.closeConnection()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat loops did not exit on disconnect")
	}
}

func TestCloseConnectionIdempotent(t *testing.T) {
	l := NewListener("ws://unused", "key", []string{"bets"}, make(chan Change, 1), nil)

	// Safe with no open connection, and safe to repeat. The connect
	// error path relies on this.
	l.closeConnection()
	l.closeConnection()
}

func TestConnectFailureLeavesNoConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no websocket here", http.StatusBadRequest)
	}))
	defer srv.Close()

	var statuses []string
	l := NewListener(wsURL(srv), "key", []string{"bets"}, make(chan Change, 1), func(s string) {
		statuses = append(statuses, s)
	})

	if err := l.connect(context.Background()); err == nil {
		t.Fatal("expected connect to fail against a non-websocket endpoint")
	}

	l.connMu.Lock()
	conn, connDone := l.conn, l.connDone
	l.connMu.Unlock()
	if conn != nil || connDone != nil {
		t.Error("expected no connection state after a failed connect")
	}
	for _, s := range statuses {
		if s == "connected" {
			t.Error("status must not report connected after a failed connect")
		}
	}
}

func TestStopAfterStart(t *testing.T) {
	srv := newWSServer(t)
	defer srv.Close()

	l := NewListener(wsURL(srv), "key", []string{"bets", "price_history"}, make(chan Change, 8), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l.Start(ctx)

	// Give the run loop a moment to establish the connection.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		l.connMu.Lock()
		connected := l.conn != nil
		l.connMu.Unlock()
		if connected {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	stopped := make(chan struct{})
	go func() {
		l.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not drain the listener goroutines")
	}
}

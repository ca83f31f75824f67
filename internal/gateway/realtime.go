package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Reconnection and heartbeat tuning for the realtime stream.
const (
	InitialBackoff = 1 * time.Second
	MaxBackoff     = 60 * time.Second
	BackoffFactor  = 2.0
	JitterPercent  = 0.2

	HeartbeatInterval = 30 * time.Second
	ReadTimeout       = 70 * time.Second
	WriteTimeout      = 10 * time.Second
)

// Change is one table-level change notification. The payload carries
// no row data the client trusts; receivers refetch the whole table.
type Change struct {
	Table string
	Event string
}

// Listener maintains the websocket connection to the gateway's
// realtime endpoint and emits a Change per table-level notification.
type Listener struct {
	url        string
	anonKey    string
	tables     []string
	changeChan chan<- Change

	conn     *websocket.Conn
	connDone chan struct{}
	connMu   sync.Mutex
	backoff  time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
	msgRef   int
	statusFn func(status string)
}

// NewListener creates a realtime listener subscribed to the given
// tables. statusFn, when non-nil, observes connection state changes.
func NewListener(rtURL, anonKey string, tables []string, changeChan chan<- Change, statusFn func(string)) *Listener {
	return &Listener{
		url:        rtURL,
		anonKey:    anonKey,
		tables:     tables,
		changeChan: changeChan,
		backoff:    InitialBackoff,
		stopChan:   make(chan struct{}),
		statusFn:   statusFn,
	}
}

// Start begins the listener with automatic reconnection.
func (l *Listener) Start(ctx context.Context) {
	l.wg.Add(1)
	go l.runLoop(ctx)
}

// Stop gracefully shuts down the listener.
func (l *Listener) Stop() {
	close(l.stopChan)
	l.closeConnection()
	l.wg.Wait()
}

// runLoop handles connection, reading, and reconnection.
func (l *Listener) runLoop(ctx context.Context) {
	defer l.wg.Done()

	for {
		select {
		case <-ctx.Done():
			slog.Info("realtime_loop_stopping", "reason", "context cancelled")
			return
		case <-l.stopChan:
			slog.Info("realtime_loop_stopping", "reason", "stop signal")
			return
		default:
		}

		if err := l.connect(ctx); err != nil {
			slog.Error("realtime_connect_failed", "error", err, "backoff", l.backoff)
			l.setStatus("disconnected")
			l.waitBackoff(ctx)
			continue
		}

		if err := l.readLoop(ctx); err != nil {
			slog.Warn("realtime_read_error", "error", err)
		}

		l.closeConnection()
		l.setStatus("disconnected")

		select {
		case <-ctx.Done():
			return
		case <-l.stopChan:
			return
		default:
			l.waitBackoff(ctx)
		}
	}
}

// connect dials the realtime endpoint and joins one channel per table.
func (l *Listener) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	endpoint := l.url
	if l.anonKey != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return fmt.Errorf("bad realtime url: %w", err)
		}
		q := u.Query()
		q.Set("apikey", l.anonKey)
		q.Set("vsn", "1.0.0")
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("dial failed: %w", err)
	}

	done := make(chan struct{})
	l.connMu.Lock()
	l.conn = conn
	l.connDone = done
	l.connMu.Unlock()

	// Reset backoff on successful connection
	l.backoff = InitialBackoff

	slog.Info("realtime_connected", "endpoint", l.url)
	l.setStatus("connected")

	for _, table := range l.tables {
		if err := l.join(table); err != nil {
			l.closeConnection()
			return fmt.Errorf("join %s failed: %w", table, err)
		}
	}

	l.wg.Add(1)
	go l.heartbeatLoop(ctx, done)

	return nil
}

// join subscribes to one table's change channel.
func (l *Listener) join(table string) error {
	msg := phoenixMessage{
		Topic:   "realtime:public:" + table,
		Event:   "phx_join",
		Payload: json.RawMessage(`{}`),
		Ref:     l.nextRef(),
	}
	if err := l.write(msg); err != nil {
		return err
	}
	slog.Info("realtime_subscribed", "table", table)
	return nil
}

// readLoop reads messages until the connection fails.
func (l *Listener) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stopChan:
			return nil
		default:
		}

		l.connMu.Lock()
		conn := l.conn
		l.connMu.Unlock()

		if conn == nil {
			return fmt.Errorf("connection is nil")
		}

		conn.SetReadDeadline(time.Now().Add(ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}

		l.handleMessage(message)
	}
}

// handleMessage parses a frame and dispatches change notifications.
func (l *Listener) handleMessage(data []byte) {
	change, ok, err := parseEvent(data)
	if err != nil {
		slog.Debug("realtime_parse_error", "error", err, "raw", string(data))
		return
	}
	if !ok {
		return
	}

	select {
	case l.changeChan <- change:
		slog.Debug("change_received", "table", change.Table, "event", change.Event)
	default:
		slog.Warn("change_channel_full", "table", change.Table)
	}
}

// heartbeatLoop keeps the phoenix connection alive. The server drops
// clients that stay silent past its heartbeat window. done belongs to
// one connection; the loop exits when that connection closes, so a
// reconnect never inherits a stale heartbeat.
func (l *Listener) heartbeatLoop(ctx context.Context, done <-chan struct{}) {
	defer l.wg.Done()

	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopChan:
			return
		case <-done:
			return
		case <-ticker.C:
			msg := phoenixMessage{
				Topic:   "phoenix",
				Event:   "heartbeat",
				Payload: json.RawMessage(`{}`),
				Ref:     l.nextRef(),
			}
			if err := l.write(msg); err != nil {
				slog.Warn("realtime_heartbeat_failed", "error", err)
				l.closeConnection()
				return
			}
		}
	}
}

// write sends one frame under the connection lock.
func (l *Listener) write(msg phoenixMessage) error {
	l.connMu.Lock()
	defer l.connMu.Unlock()

	if l.conn == nil {
		return fmt.Errorf("connection is nil")
	}

	l.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	if err := l.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

func (l *Listener) nextRef() string {
	l.connMu.Lock()
	defer l.connMu.Unlock()
	l.msgRef++
	return fmt.Sprintf("%d", l.msgRef)
}

func (l *Listener) setStatus(status string) {
	if l.statusFn != nil {
		l.statusFn(status)
	}
}

// closeConnection safely closes the websocket connection and releases
// its heartbeat loop.
func (l *Listener) closeConnection() {
	l.connMu.Lock()
	defer l.connMu.Unlock()

	if l.connDone != nil {
		close(l.connDone)
		l.connDone = nil
	}
	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
		slog.Info("realtime_disconnected")
	}
}

// waitBackoff waits for the backoff duration with jitter.
func (l *Listener) waitBackoff(ctx context.Context) {
	jitter := time.Duration(float64(l.backoff) * JitterPercent * (rand.Float64()*2 - 1))
	wait := l.backoff + jitter

	slog.Debug("realtime_waiting_backoff", "duration", wait)

	select {
	case <-ctx.Done():
	case <-l.stopChan:
	case <-time.After(wait):
	}

	l.backoff = time.Duration(float64(l.backoff) * BackoffFactor)
	if l.backoff > MaxBackoff {
		l.backoff = MaxBackoff
	}
}

// Package main is the entry point for the Mothman Market terminal client.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mothmanmarket/mothman/internal/config"
	"github.com/mothmanmarket/mothman/internal/gateway"
	"github.com/mothmanmarket/mothman/internal/metrics"
	"github.com/mothmanmarket/mothman/internal/session"
	"github.com/mothmanmarket/mothman/internal/sync"
	"github.com/mothmanmarket/mothman/internal/ui"
)

// ChangeChannelBuffer is the size of the buffered realtime change channel.
const ChangeChannelBuffer = 100

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger := setupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("mothman starting",
		"version", "1.0.0",
	)

	slog.Info("config_loaded",
		"gateway_url", cfg.GatewayURL,
		"realtime_url", cfg.RealtimeURL,
		"anon_key", cfg.MaskedAnonKey(),
		"refresh_interval", cfg.RefreshInterval,
		"request_timeout", cfg.RequestTimeout,
		"session_db_path", cfg.SessionDBPath,
		"enable_tui", cfg.EnableTUI,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Open the local session store and load its stored identity
	sess, err := session.Open(cfg.SessionDBPath)
	if err != nil {
		slog.Error("failed to open session store", "error", err)
		os.Exit(1)
	}
	defer sess.Close()

	if err := sess.Init(); err != nil {
		slog.Error("failed to load session", "error", err)
		os.Exit(1)
	}
	userID, state := sess.UserID()
	slog.Info("session_loaded", "state", state.String(), "user_id", userID)

	// Gateway client
	gw := gateway.New(cfg.GatewayURL, cfg.AnonKey, cfg.RequestTimeout)

	// Metrics tracker
	tracker := metrics.NewTracker()

	// Realtime listener feeding the sync manager
	changeChan := make(chan gateway.Change, ChangeChannelBuffer)
	tables := []string{
		gateway.TableBets,
		gateway.TablePriceHistory,
		gateway.TableProfiles,
		gateway.TableTransactions,
	}
	listener := gateway.NewListener(cfg.RealtimeURL, cfg.AnonKey, tables, changeChan, tracker.SetRealtimeStatus)
	listener.Start(ctx)

	// Sync manager: realtime changes plus the periodic refresh tick
	manager := sync.NewManager(cfg.RefreshInterval, tracker)
	go manager.Run(ctx, changeChan)

	slog.Info("client_started",
		"tables", len(tables),
		"tui_enabled", cfg.EnableTUI,
	)

	if cfg.EnableTUI {
		slog.Info("starting_tui")
		app := ui.NewApp(cfg, gw, sess, manager, tracker)

		// Run the TUI in a goroutine so signals are still handled
		go func() {
			if err := app.Run(); err != nil {
				slog.Error("tui_error", "error", err)
			}
			cancel()
		}()

		select {
		case sig := <-sigChan:
			slog.Info("shutdown_signal_received", "signal", sig.String())
			app.Stop()
		case <-ctx.Done():
			app.Stop()
		}
	} else {
		// Headless mode - keep syncing until a signal arrives
		sig := <-sigChan
		slog.Info("shutdown_signal_received", "signal", sig.String())
	}

	cancel()

	// Graceful shutdown
	slog.Info("shutting_down", "status", "stopping listener")
	listener.Stop()
	manager.Stop()

	slog.Info("shutdown_complete")
}

// setupLogger creates a structured logger with the specified level.
// Format: 2025-01-04 14:32:01 [INFO]  message key=value
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format("2006-01-02 15:04:05"))
				}
			}
			return a
		},
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

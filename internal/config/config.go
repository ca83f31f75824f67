// Package config handles loading and validating configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the Mothman Market client.
type Config struct {
	// Remote data gateway (PostgREST-style REST endpoint)
	GatewayURL string
	AnonKey    string

	// Realtime change-notification websocket
	RealtimeURL string

	// Data synchronization
	RefreshInterval time.Duration
	RequestTimeout  time.Duration

	// Durable client-side state
	SessionDBPath string

	// UI
	EnableTUI     bool
	UIRefreshRate time.Duration

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables with fallback to .env file.
// Priority order: Environment variables > .env file > hardcoded defaults
func Load() (*Config, error) {
	// Attempt to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		GatewayURL:  getEnv("MOTHMAN_GATEWAY_URL", "http://localhost:54321/rest/v1"),
		AnonKey:     getEnv("MOTHMAN_ANON_KEY", ""),
		RealtimeURL: getEnv("MOTHMAN_REALTIME_URL", "ws://localhost:54321/realtime/v1/websocket"),

		RefreshInterval: time.Duration(getEnvInt("REFRESH_INTERVAL_SECONDS", 15)) * time.Second,
		RequestTimeout:  time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,

		SessionDBPath: getEnv("SESSION_DB_PATH", "./data/session.db"),

		EnableTUI:     getEnvBool("ENABLE_TUI", true),
		UIRefreshRate: time.Duration(getEnvInt("UI_REFRESH_MS", 500)) * time.Millisecond,

		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set and valid.
func (c *Config) Validate() error {
	if c.GatewayURL == "" {
		return fmt.Errorf("MOTHMAN_GATEWAY_URL is required")
	}

	if !strings.HasPrefix(c.RealtimeURL, "ws://") && !strings.HasPrefix(c.RealtimeURL, "wss://") {
		return fmt.Errorf("MOTHMAN_REALTIME_URL must be a ws:// or wss:// URL")
	}

	if c.RefreshInterval < time.Second {
		return fmt.Errorf("REFRESH_INTERVAL_SECONDS must be at least 1")
	}

	if c.RequestTimeout < time.Second {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be at least 1")
	}

	if c.SessionDBPath == "" {
		return fmt.Errorf("SESSION_DB_PATH is required")
	}

	return nil
}

// MaskedAnonKey returns the gateway key with most characters hidden for logging.
func (c *Config) MaskedAnonKey() string {
	return maskSecret(c.AnonKey)
}

// maskSecret hides all but the first and last 4 characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 8 {
		if len(s) == 0 {
			return "(not set)"
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean or returns a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

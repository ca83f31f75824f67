// Package session holds the current-user identifier for the rest of
// the application and seeds it once from durable client-side storage.
//
// The identifier is a cache of a client-supplied value, not an
// authentication proof; no server-side validation happens here.
package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// State is the tri-state presence of the user identifier. Consumers
// must not gate or redirect on user-presence until the holder is
// initialized, so a storage read cannot race a redirect.
type State int

const (
	// StateUnknown means durable storage has not been read yet.
	StateUnknown State = iota
	// StateAbsent means storage was read and no identifier is stored.
	StateAbsent
	// StatePresent means an identifier is loaded.
	StatePresent
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePresent:
		return "present"
	default:
		return "unknown"
	}
}

const userIDKey = "user_id"

// Holder exposes the current-user identifier and an initialized flag.
// It is passed explicitly to consumers rather than held as ambient
// global state.
type Holder struct {
	mu     sync.RWMutex
	db     *sql.DB
	state  State
	userID string
}

// Open creates or opens the session store at the given path with WAL
// mode enabled, and reads the stored identifier.
func Open(dbPath string) (*Holder, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS session (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session table: %w", err)
	}

	return &Holder{db: db, state: StateUnknown}, nil
}

// Init reads the stored identifier and flips the holder out of
// StateUnknown. Until it runs, UserID reports StateUnknown, which is
// distinct from "known to be absent", and consumers must not redirect
// on user-presence.
func (h *Holder) Init() error {
	var id string
	err := h.db.QueryRow(`SELECT value FROM session WHERE key = ?`, userIDKey).Scan(&id)

	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case errors.Is(err, sql.ErrNoRows):
		h.state = StateAbsent
	case err != nil:
		return fmt.Errorf("reading session: %w", err)
	default:
		h.state = StatePresent
		h.userID = id
	}
	return nil
}

// Initialized reports whether durable storage has been read.
func (h *Holder) Initialized() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state != StateUnknown
}

// UserID returns the current identifier and its state. The identifier
// is only meaningful when state is StatePresent.
func (h *Holder) UserID() (string, State) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.userID, h.state
}

// SetUserID stores the identifier and persists it.
func (h *Holder) SetUserID(id string) error {
	if _, err := h.db.Exec(
		`INSERT INTO session (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		userIDKey, id,
	); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}

	h.mu.Lock()
	h.state = StatePresent
	h.userID = id
	h.mu.Unlock()
	return nil
}

// Clear removes the identifier and its persisted value.
func (h *Holder) Clear() error {
	if _, err := h.db.Exec(`DELETE FROM session WHERE key = ?`, userIDKey); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	h.mu.Lock()
	h.state = StateAbsent
	h.userID = ""
	h.mu.Unlock()
	return nil
}

// Close releases the underlying store.
func (h *Holder) Close() error {
	return h.db.Close()
}

package session

import (
	"path/filepath"
	"testing"
)

func TestStateBeforeInit(t *testing.T) {
	h, err := Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer h.Close()

	if h.Initialized() {
		t.Error("expected holder to be uninitialized before Init")
	}
	if _, state := h.UserID(); state != StateUnknown {
		t.Errorf("expected StateUnknown before Init, got %v", state)
	}
}

func TestInitOnFreshStore(t *testing.T) {
	h, err := Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer h.Close()

	if err := h.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !h.Initialized() {
		t.Error("expected holder to be initialized after Init")
	}
	if id, state := h.UserID(); state != StateAbsent || id != "" {
		t.Errorf("expected absent empty identifier, got %q %v", id, state)
	}
}

func TestSetUserIDPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	h, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := h.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := h.SetUserID("user-42"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if id, state := h.UserID(); state != StatePresent || id != "user-42" {
		t.Errorf("expected present user-42, got %q %v", id, state)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// The identifier survives a reopen.
	h2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer h2.Close()

	if err := h2.Init(); err != nil {
		t.Fatalf("reinit: %v", err)
	}
	if id, state := h2.UserID(); state != StatePresent || id != "user-42" {
		t.Errorf("expected persisted user-42, got %q %v", id, state)
	}
}

func TestClear(t *testing.T) {
	h, err := Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer h.Close()

	if err := h.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := h.SetUserID("user-1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := h.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if id, state := h.UserID(); state != StateAbsent || id != "" {
		t.Errorf("expected absent after clear, got %q %v", id, state)
	}
}

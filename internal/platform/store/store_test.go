package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := s.Get(KeyToken); ok {
		t.Fatal("empty store should not contain token")
	}

	if err := s.Set(KeyToken, "abc123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(KeyTheme, "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Reopen and verify persistence.
	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if v, ok := reopened.Get(KeyToken); !ok || v != "abc123" {
		t.Errorf("token = %q, %v; want %q, true", v, ok, "abc123")
	}
	if v, ok := reopened.Get(KeyTheme); !ok || v != "dark" {
		t.Errorf("theme = %q, %v; want %q, true", v, ok, "dark")
	}
}

func TestFileStore_RemoveIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Set(KeyToken, "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Remove(KeyToken); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := s.Get(KeyToken); ok {
		t.Error("token still present after Remove")
	}
	// Second remove must not error.
	if err := s.Remove(KeyToken); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestFileStore_MissingFileIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("unexpected error for missing file: %v", err)
	}
	if err := s.Set(KeyTheme, "light"); err != nil {
		t.Fatalf("Set should create parent dirs: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("state file not materialized: %v", err)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path); err == nil {
		t.Fatal("expected error for corrupt state file, got nil")
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok := s.Get("k"); !ok || v != "v" {
		t.Errorf("Get = %q, %v; want %q, true", v, ok, "v")
	}
	if err := s.Remove("k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := s.Get("k"); ok {
		t.Error("key still present after Remove")
	}
}

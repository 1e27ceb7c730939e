package util

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestLockPath(t *testing.T) {
	tests := []struct {
		dir, id, expected string
	}{
		{"/var/run", "", "/var/run/mysql-db-dump.lock"},
		{"/var/run/", "nightly", "/var/run/mysql-db-dump" + "nightly.lock"},
	}
	for _, tt := range tests {
		if got := LockPath(tt.dir, tt.id); got != tt.expected {
			t.Errorf("LockPath(%q, %q) = %q, want %q", tt.dir, tt.id, got, tt.expected)
		}
	}
}

func TestAcquireLock(t *testing.T) {
	dir := t.TempDir()
	first, err := AcquireLock(dir, "a")
	if err != nil {
		t.Fatalf("unexpected error acquiring first lock: %v", err)
	}

	// same id is refused
	if _, err := AcquireLock(dir, "a"); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	// another id is independent
	other, err := AcquireLock(dir, "b")
	if err != nil {
		t.Fatalf("unexpected error acquiring second id: %v", err)
	}
	defer other.Release()

	if err := first.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	again, err := AcquireLock(dir, "a")
	if err != nil {
		t.Fatalf("lock not reusable after release: %v", err)
	}
	defer again.Release()

	if filepath.Dir(LockPath(dir, "a")) != dir {
		t.Errorf("lock file not placed in %s", dir)
	}
}

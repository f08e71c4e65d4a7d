package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRotatingWriter_RotatesOnSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "primesieve.log")

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 64, MaxBackups: 10})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}

	line := []byte(strings.Repeat("x", 40) + "\n")
	for i := 0; i < 3; i++ {
		if _, err := w.Write(line); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected rotated files, found %d entries", len(entries))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() > 64 {
		t.Errorf("active log size = %d, want <= 64", info.Size())
	}
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed.log")
	w, err := NewRotatingWriter(path, RotationConfig{})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := w.Write([]byte("late")); err == nil {
		t.Error("Write() after Close() succeeded, want error")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}
}

func TestRotatingWriter_CleanupMaxBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	for _, name := range []string{"app.a.log", "app.b.log", "app.c.log"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("old"), 0o644); err != nil {
			t.Fatalf("seeding %s: %v", name, err)
		}
	}

	w, err := NewRotatingWriter(path, RotationConfig{MaxBackups: 1})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	defer w.Close()

	matches, err := filepath.Glob(filepath.Join(dir, "app.*.log"))
	if err != nil {
		t.Fatalf("Glob() error = %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("rotated backups = %d, want 1", len(matches))
	}
}

func TestRotatingWriter_RotatesFullFileOnOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "full.log")
	if err := os.WriteFile(path, []byte(strings.Repeat("y", 100)), 0o644); err != nil {
		t.Fatalf("seeding log: %v", err)
	}

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 64})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	defer w.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("active log size = %d, want 0 after rotation on open", info.Size())
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "full.*.log"))
	if len(matches) != 1 {
		t.Errorf("backups = %v, want one", matches)
	}
}

func TestRotatingWriter_PrunesByAge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aged.log")

	old := filepath.Join(dir, "aged.20200101T000000.000.log")
	fresh := filepath.Join(dir, "aged.20990101T000000.000.log")
	for _, p := range []string{old, fresh} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("seeding %s: %v", p, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	w, err := NewRotatingWriter(path, RotationConfig{MaxAge: 7})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Errorf("backup older than MaxAge still present (err = %v)", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("recent backup removed: %v", err)
	}
}

package logging

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// backupStamp is the timestamp layout inserted into rotated file names.
// It sorts lexically in time order.
const backupStamp = "20060102T150405.000"

// RotationConfig configures log file rotation.
type RotationConfig struct {
	// MaxSize is the size in bytes at which the active file is rotated.
	// Zero or less uses the default of 10 MiB.
	MaxSize int64

	// MaxAge is the number of days a rotated file is kept. Zero keeps them
	// regardless of age.
	MaxAge int

	// MaxBackups is the number of rotated files kept. Zero keeps all of them.
	MaxBackups int
}

// DefaultRotationConfig returns 10 MiB files, 5 backups and 30 days.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSize:    10 << 20,
		MaxAge:     30,
		MaxBackups: 5,
	}
}

// RotatingWriter is an append-only log file that moves itself aside to
// <name>.<timestamp><ext> once it reaches MaxSize. Safe for concurrent use.
type RotatingWriter struct {
	mu      sync.Mutex
	path    string
	cfg     RotationConfig
	f       *os.File
	written int64
}

// NewRotatingWriter opens path for appending, creating its directory. A file
// already at MaxSize is rotated before the first write.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultRotationConfig().MaxSize
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	w := &RotatingWriter{path: path, cfg: cfg}
	if err := w.open(); err != nil {
		return nil, err
	}
	if w.written >= cfg.MaxSize {
		if err := w.rotate(time.Now()); err != nil {
			_ = w.f.Close()
			return nil, err
		}
		return w, nil
	}
	w.prune(time.Now())
	return w, nil
}

// Write appends p, rotating first when p would take a non-empty file past
// MaxSize. A single oversized write still lands in one file.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return 0, os.ErrClosed
	}
	if w.written > 0 && w.written+int64(len(p)) > w.cfg.MaxSize {
		if err := w.rotate(time.Now()); err != nil {
			return 0, fmt.Errorf("rotating log file: %w", err)
		}
	}

	n, err := w.f.Write(p)
	w.written += int64(n)
	if err != nil {
		return n, fmt.Errorf("writing log file: %w", err)
	}
	return n, nil
}

// Close syncs and closes the active file. Closing twice is a no-op.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return nil
	}
	f := w.f
	w.f = nil

	syncErr := f.Sync()
	closeErr := f.Close()
	if syncErr != nil {
		return fmt.Errorf("syncing log file: %w", syncErr)
	}
	return closeErr
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.f = f
	w.written = info.Size()
	return nil
}

// rotate moves the active file aside, reopens path and prunes old backups.
func (w *RotatingWriter) rotate(now time.Time) error {
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	w.f = nil

	if err := os.Rename(w.path, w.backupName(now)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("moving log file aside: %w", err)
	}
	if err := w.open(); err != nil {
		return err
	}
	w.prune(now)
	return nil
}

func (w *RotatingWriter) backupName(t time.Time) string {
	ext := filepath.Ext(w.path)
	return strings.TrimSuffix(w.path, ext) + "." + t.Format(backupStamp) + ext
}

// backup is a rotated log file.
type backup struct {
	path    string
	modTime time.Time
}

// backups lists rotated files next to path, newest first.
func (w *RotatingWriter) backups() []backup {
	ext := filepath.Ext(w.path)
	pattern := strings.TrimSuffix(w.path, ext) + ".*" + ext

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil
	}

	var out []backup
	for _, m := range matches {
		if m == w.path {
			continue
		}
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		out = append(out, backup{path: m, modTime: info.ModTime()})
	}
	slices.SortFunc(out, func(a, b backup) int {
		return cmp.Or(b.modTime.Compare(a.modTime), strings.Compare(b.path, a.path))
	})
	return out
}

// prune removes backups beyond MaxBackups and those older than MaxAge.
// Failures are ignored; pruning is retried on the next rotation.
func (w *RotatingWriter) prune(now time.Time) {
	cutoff := now.AddDate(0, 0, -w.cfg.MaxAge)
	for i, b := range w.backups() {
		tooMany := w.cfg.MaxBackups > 0 && i >= w.cfg.MaxBackups
		tooOld := w.cfg.MaxAge > 0 && b.modTime.Before(cutoff)
		if tooMany || tooOld {
			_ = os.Remove(b.path)
		}
	}
}

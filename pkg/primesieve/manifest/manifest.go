package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jamesainslie/primesieve/pkg/primesieve/logging"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
)

var logger = logging.Get("manifest")

// ErrNotFound is returned when no entry matches an ID.
var ErrNotFound = errors.New("history entry not found")

// minPrefix is the shortest ID prefix Get accepts.
const minPrefix = 4

// Manifest stores run history as one JSON file per run.
type Manifest struct {
	mu  sync.Mutex
	dir string
}

// New returns a Manifest rooted at dir. The directory is created by EnsureDir.
func New(dir string) (*Manifest, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	return &Manifest{dir: dir}, nil
}

// Dir returns the history directory.
func (m *Manifest) Dir() string { return m.dir }

// EnsureDir creates the history directory.
func (m *Manifest) EnsureDir() error {
	return os.MkdirAll(m.dir, 0o755)
}

// newEntry builds the history record for a run. r may be nil when the run
// failed before producing a result.
func newEntry(op OperationType, params Params, r *types.Result, runErr error) *Entry {
	e := &Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Operation: op,
		Params:    params,
	}
	if r != nil {
		e.Summary = Summary{
			Count:   r.Count,
			Sum:     r.Sum,
			Largest: r.Largest,
			Elapsed: r.Elapsed.String(),
			Cached:  r.Cached,
		}
		if r.Gap != nil {
			e.Summary.Gap = r.Gap.String()
		}
	}
	if runErr != nil {
		e.Error = runErr.Error()
	}
	return e
}

// LogRun records a run and returns the stored entry.
func (m *Manifest) LogRun(op OperationType, params Params, r *types.Result, runErr error) (*Entry, error) {
	e := newEntry(op, params, r, runErr)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.write(e); err != nil {
		return nil, fmt.Errorf("failed to write history entry: %w", err)
	}
	logger.Debug("recorded run", "id", e.ID, "operation", op, "failed", e.Failed())
	return e, nil
}

// write stores e via a temporary file so readers never see a partial entry.
func (m *Manifest) write(e *Entry) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}

	path := filepath.Join(m.dir, entryFilename(e))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// entryFilename is <op>-<timestamp>-<id>.json, so a directory listing sorts
// by operation and then by age.
func entryFilename(e *Entry) string {
	return fmt.Sprintf("%s-%s-%s.json", e.Operation, e.Timestamp.Format("20060102T150405.000000000"), e.ID)
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (m *Manifest) List(limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.readAll()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry with the given ID, or the single entry whose ID
// starts with id when id has at least four characters.
func (m *Manifest) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.readAll()
	if err != nil {
		return nil, err
	}

	var matches []int
	for i, e := range entries {
		if e.ID == id {
			return &entries[i], nil
		}
		if len(id) >= minPrefix && strings.HasPrefix(e.ID, id) {
			matches = append(matches, i)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return &entries[matches[0]], nil
	default:
		return nil, fmt.Errorf("ambiguous entry ID prefix %q matches %d entries", id, len(matches))
	}
}

// files lists the entry files in the history directory. A missing directory
// has no entries.
func (m *Manifest) files() ([]fs.DirEntry, error) {
	all, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}
	return slices.DeleteFunc(all, func(f fs.DirEntry) bool {
		return f.IsDir() || filepath.Ext(f.Name()) != ".json"
	}), nil
}

// readAll decodes every entry file. Unreadable files are logged and skipped.
func (m *Manifest) readAll() ([]Entry, error) {
	files, err := m.files()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		var e Entry
		data, err := os.ReadFile(filepath.Join(m.dir, f.Name()))
		if err == nil {
			err = json.Unmarshal(data, &e)
		}
		if err != nil {
			logger.Warn("skipping unreadable history entry", "file", f.Name(), "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// removeWhere deletes entry files for which drop reports true and returns
// how many were removed.
func (m *Manifest) removeWhere(drop func(fs.DirEntry) bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	files, err := m.files()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, f := range files {
		if !drop(f) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, f.Name())); err != nil {
			return removed, fmt.Errorf("removing %s: %w", f.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// Cleanup removes entries whose files are older than retentionDays.
// A retention of 0 or less removes nothing.
func (m *Manifest) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed, err := m.removeWhere(func(f fs.DirEntry) bool {
		info, err := f.Info()
		return err == nil && info.ModTime().Before(cutoff)
	})
	if removed > 0 {
		logger.Debug("pruned history", "removed", removed, "retention_days", retentionDays)
	}
	return removed, err
}

// Clear removes every entry.
func (m *Manifest) Clear() (int, error) {
	return m.removeWhere(func(fs.DirEntry) bool { return true })
}

// Package output renders sieve results. Formatters are registered by name
// (record, plain, pretty, json, yaml, template) and selected at runtime:
//
//	f, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	return output.WriteWith(f, "", result)
package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jamesainslie/primesieve/pkg/primesieve/logging"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
)

var logger = logging.Get("output")

// Formatter renders a result into a buffer.
type Formatter interface {
	Format(w *bytes.Buffer, r *types.Result) error
}

// FormatterFactory creates a Formatter.
type FormatterFactory func() Formatter

var registry = struct {
	sync.RWMutex
	factories map[string]FormatterFactory
}{factories: make(map[string]FormatterFactory)}

// Register makes a formatter available under name, replacing any previous one.
func Register(name string, factory FormatterFactory) {
	registry.Lock()
	defer registry.Unlock()
	registry.factories[name] = factory
}

// Get returns a new formatter registered under name.
func Get(name string) (Formatter, error) {
	registry.RLock()
	factory, ok := registry.factories[name]
	registry.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %s)", name, strings.Join(Available(), ", "))
	}
	return factory(), nil
}

// Available returns the registered format names in sorted order.
func Available() []string {
	registry.RLock()
	defer registry.RUnlock()

	names := make([]string, 0, len(registry.factories))
	for name := range registry.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Write renders r with the named format to path, or to stdout when path is empty.
func Write(format, path string, r *types.Result) error {
	f, err := Get(format)
	if err != nil {
		return err
	}
	return WriteWith(f, path, r)
}

// WriteWith renders r with f to path, or to stdout when path is empty.
// Files are replaced atomically.
func WriteWith(f Formatter, path string, r *types.Result) error {
	var buf bytes.Buffer
	if err := f.Format(&buf, r); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if path == "" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing output file: %w", err)
	}

	logger.Debug("wrote output", "path", path, "bytes", buf.Len())
	return nil
}

// FormatSeconds renders d in seconds with six significant digits.
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'g', 6, 64)
}

// FormatPrimes joins primes with single spaces.
func FormatPrimes(primes []int) string {
	var b []byte
	for i, p := range primes {
		if i > 0 {
			b = append(b, ' ')
		}
		b = strconv.AppendInt(b, int64(p), 10)
	}
	return string(b)
}

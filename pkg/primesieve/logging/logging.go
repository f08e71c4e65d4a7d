// Package logging provides component loggers for primesieve, backed by
// charmbracelet/log and a size-rotated file under the XDG state directory.
//
//	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logging.Get("sieve").Info("seed sieve complete", "primes", 1229)
//
// Loggers may be obtained before Init; they discard output until Init runs
// and are then rewired in place.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level is a logging severity.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levels = [...]struct {
	name  string
	charm log.Level
}{
	LevelDebug: {"debug", log.DebugLevel},
	LevelInfo:  {"info", log.InfoLevel},
	LevelWarn:  {"warn", log.WarnLevel},
	LevelError: {"error", log.ErrorLevel},
}

func (l Level) valid() bool {
	return l >= LevelDebug && l <= LevelError
}

func (l Level) String() string {
	if !l.valid() {
		return "unknown"
	}
	return levels[l].name
}

func (l Level) charm() log.Level {
	if !l.valid() {
		return log.InfoLevel
	}
	return levels[l].charm
}

// ErrInvalidLevel is returned for an unrecognized level name.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level name, case-insensitively. "warning" is accepted
// for warn.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		name = "warn"
	}
	for l, lv := range levels {
		if lv.name == name {
			return Level(l), nil
		}
	}
	return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
}

// Config configures the logging system.
type Config struct {
	// Level is the default level for every component.
	Level string

	// Path is the log file. Empty uses DefaultLogPath().
	Path string

	// Rotation configures log file rotation.
	Rotation RotationConfig

	// Components overrides Level per component name.
	Components map[string]string

	// ConsoleLevel mirrors entries at or above this level to stderr.
	// Empty disables console output.
	ConsoleLevel string

	// Panel captures entries into an in-memory LogBuffer for the TUI.
	Panel bool
}

// settings is a parsed Config.
type settings struct {
	level      Level
	components map[string]Level
	console    *Level
	path       string
}

func parseConfig(cfg Config) (settings, error) {
	var s settings
	var err error

	if s.level, err = ParseLevel(cfg.Level); err != nil {
		return s, fmt.Errorf("parsing log level: %w", err)
	}

	s.components = make(map[string]Level, len(cfg.Components))
	for comp, name := range cfg.Components {
		lvl, err := ParseLevel(name)
		if err != nil {
			return s, fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		s.components[comp] = lvl
	}

	if cfg.ConsoleLevel != "" {
		lvl, err := ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return s, fmt.Errorf("parsing console level: %w", err)
		}
		s.console = &lvl
	}

	s.path = cfg.Path
	if s.path == "" {
		s.path = DefaultLogPath()
	}
	return s, nil
}

// sinks is the set of outputs a Logger writes to.
type sinks struct {
	file    *log.Logger
	console *log.Logger

	// panel captures entries at or above level, with fields prepended.
	panel  *LogBuffer
	level  Level
	fields []interface{}
}

// Logger is a named component logger.
type Logger struct {
	component string
	out       atomic.Pointer[sinks]
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...interface{}) { l.log(LevelDebug, msg, args...) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...interface{}) { l.log(LevelInfo, msg, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...interface{}) { l.log(LevelWarn, msg, args...) }

// Error logs at error level.
func (l *Logger) Error(msg string, args ...interface{}) { l.log(LevelError, msg, args...) }

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	s := l.out.Load()
	if s == nil {
		return
	}

	s.file.Log(level.charm(), msg, args...)
	if s.console != nil {
		s.console.Log(level.charm(), msg, args...)
	}
	if s.panel != nil && level >= s.level {
		s.panel.Add(Entry{
			Time:      time.Now(),
			Level:     level,
			Component: l.component,
			Message:   msg,
			Fields:    append(append([]interface{}(nil), s.fields...), args...),
		})
	}
}

// With returns a logger that adds key/value pairs to every entry.
// The child is detached: it keeps the outputs current at the time of the
// call and does not follow later Init calls.
func (l *Logger) With(args ...interface{}) *Logger {
	child := &Logger{component: l.component}
	s := l.out.Load()
	if s == nil {
		return child
	}

	next := &sinks{
		file:   s.file.With(args...),
		panel:  s.panel,
		level:  s.level,
		fields: append(append([]interface{}(nil), s.fields...), args...),
	}
	if s.console != nil {
		next.console = s.console.With(args...)
	}
	child.out.Store(next)
	return child
}

// registry is the process-wide logging state.
type registry struct {
	mu      sync.RWMutex
	active  bool
	cfg     settings
	writer  *RotatingWriter
	panel   *LogBuffer
	loggers map[string]*Logger
}

var global = &registry{loggers: make(map[string]*Logger)}

// Init opens the log file and rewires every logger. It may be called again
// to reconfigure; the previous file is closed.
func Init(cfg Config) error {
	s, err := parseConfig(cfg)
	if err != nil {
		return err
	}

	writer, err := NewRotatingWriter(s.path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if global.writer != nil {
		if err := global.writer.Close(); err != nil {
			_ = writer.Close()
			return fmt.Errorf("closing existing writer: %w", err)
		}
	}

	global.active = true
	global.cfg = s
	global.writer = writer
	global.panel = nil
	if cfg.Panel {
		global.panel = NewLogBuffer(DefaultBufferSize)
	}
	global.rewire()
	return nil
}

// Get returns the logger for component, creating it on first use.
func Get(component string) *Logger {
	global.mu.RLock()
	l, ok := global.loggers[component]
	global.mu.RUnlock()
	if ok {
		return l
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if l, ok := global.loggers[component]; ok {
		return l
	}
	l = &Logger{component: component}
	l.out.Store(global.sinksFor(component))
	global.loggers[component] = l
	return l
}

// Panel returns the TUI log buffer, or nil unless Init ran with Panel set.
func Panel() *LogBuffer {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.panel
}

// Close closes the log file. Loggers discard output until the next Init.
func Close() error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if !global.active {
		return nil
	}

	global.active = false
	global.cfg = settings{}
	global.panel = nil
	global.rewire()

	w := global.writer
	global.writer = nil
	if w != nil {
		if err := w.Close(); err != nil {
			return fmt.Errorf("closing log writer: %w", err)
		}
	}
	return nil
}

// rewire rebuilds the sinks of every registered logger. Callers hold mu.
func (r *registry) rewire() {
	for name, l := range r.loggers {
		l.out.Store(r.sinksFor(name))
	}
}

// sinksFor builds the outputs for component. Callers hold mu.
func (r *registry) sinksFor(component string) *sinks {
	level := r.cfg.level
	if lvl, ok := r.cfg.components[component]; ok {
		level = lvl
	}

	if !r.active {
		return &sinks{file: log.NewWithOptions(io.Discard, log.Options{Prefix: component})}
	}

	s := &sinks{
		file: log.NewWithOptions(r.writer, log.Options{
			Level:           level.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
		panel: r.panel,
		level: level,
	}
	if r.cfg.console != nil {
		s.console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           r.cfg.console.charm(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}
	return s
}

// DefaultLogPath returns $XDG_STATE_HOME/primesieve/primesieve.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "primesieve", "primesieve.log")
}

// DefaultConfig returns info-level logging to the default path.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}

package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultBufferSize is the number of entries kept for the TUI log panel.
const DefaultBufferSize = 50

// Entry is one captured log record.
type Entry struct {
	Time      time.Time
	Level     Level
	Component string
	Message   string
	Fields    []interface{}
}

// String renders the entry as "15:04:05 INFO sieve: msg k=v".
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Time.Format("15:04:05"))
	b.WriteByte(' ')
	b.WriteString(strings.ToUpper(e.Level.String()))
	b.WriteByte(' ')
	if e.Component != "" {
		b.WriteString(e.Component)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	for i := 0; i+1 < len(e.Fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", e.Fields[i], e.Fields[i+1])
	}
	return b.String()
}

// LogBuffer is a fixed-size ring of recent entries. Safe for concurrent use.
type LogBuffer struct {
	mu      sync.RWMutex
	entries []Entry
	start   int // oldest entry
	count   int
}

// NewLogBuffer creates a buffer holding up to size entries.
func NewLogBuffer(size int) *LogBuffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &LogBuffer{entries: make([]Entry, size)}
}

// Add appends an entry, overwriting the oldest when full.
func (b *LogBuffer) Add(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := len(b.entries)
	b.entries[(b.start+b.count)%size] = e
	if b.count < size {
		b.count++
	} else {
		b.start = (b.start + 1) % size
	}
}

// Last returns up to n of the newest entries, oldest first.
func (b *LogBuffer) Last(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n = min(max(n, 0), b.count)
	out := make([]Entry, n)
	offset := b.count - n
	for i := range n {
		out[i] = b.entries[(b.start+offset+i)%len(b.entries)]
	}
	return out
}

// Entries returns every entry, oldest first.
func (b *LogBuffer) Entries() []Entry {
	return b.Last(b.Len())
}

// Len returns the number of buffered entries.
func (b *LogBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

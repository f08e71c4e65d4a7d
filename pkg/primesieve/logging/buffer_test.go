package logging_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/jamesainslie/primesieve/pkg/primesieve/logging"
)

func TestLogBuffer_Wraps(t *testing.T) {
	b := logging.NewLogBuffer(3)
	for i := range 5 {
		b.Add(logging.Entry{Message: fmt.Sprint(i)})
	}

	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}

	got := b.Entries()
	want := []string{"2", "3", "4"}
	for i, e := range got {
		if e.Message != want[i] {
			t.Errorf("Entries()[%d] = %q, want %q", i, e.Message, want[i])
		}
	}

	last := b.Last(2)
	if len(last) != 2 || last[0].Message != "3" || last[1].Message != "4" {
		t.Errorf("Last(2) = %v, want [3 4]", last)
	}
	if n := len(b.Last(10)); n != 3 {
		t.Errorf("len(Last(10)) = %d, want 3", n)
	}
	if n := len(b.Last(-1)); n != 0 {
		t.Errorf("len(Last(-1)) = %d, want 0", n)
	}
}

func TestLogBuffer_DefaultSize(t *testing.T) {
	b := logging.NewLogBuffer(0)
	for range logging.DefaultBufferSize + 5 {
		b.Add(logging.Entry{})
	}
	if b.Len() != logging.DefaultBufferSize {
		t.Errorf("Len() = %d, want %d", b.Len(), logging.DefaultBufferSize)
	}
}

func TestEntry_String(t *testing.T) {
	e := logging.Entry{
		Time:      time.Date(2026, 1, 2, 13, 4, 5, 0, time.UTC),
		Level:     logging.LevelWarn,
		Component: "sieve",
		Message:   "partition leaves integers unassigned",
		Fields:    []interface{}{"gap", "[99, 100]"},
	}
	want := "13:04:05 WARN sieve: partition leaves integers unassigned gap=[99, 100]"
	if got := e.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

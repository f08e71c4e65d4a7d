// Package types provides core data types for the primesieve tool.
// It includes the run result and progress structures shared by the sieve,
// the output formatters and the TUI, along with helpers for parsing and
// formatting large counts.
package types

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
)

// Range is a closed interval [Lo, Hi] of integers.
// A range with Lo > Hi is empty.
type Range struct {
	Lo int `json:"lo" yaml:"lo"`
	Hi int `json:"hi" yaml:"hi"`
}

// Len returns the number of integers in the range.
func (r Range) Len() int {
	if r.Hi < r.Lo {
		return 0
	}
	return r.Hi - r.Lo + 1
}

// Empty reports whether the range holds no integers.
func (r Range) Empty() bool {
	return r.Hi < r.Lo
}

// Contains reports whether i lies within the range.
func (r Range) Contains(i int) bool {
	return i >= r.Lo && i <= r.Hi
}

// Overlaps reports whether the two ranges share at least one integer.
func (r Range) Overlaps(o Range) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.Lo <= o.Hi && o.Lo <= r.Hi
}

// String returns the range in interval notation.
func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.Lo, r.Hi)
}

// Result contains the aggregated outcome of a sieve run.
type Result struct {
	// Limit is the inclusive upper bound N.
	Limit int `json:"limit"`

	// Workers is the number of segment workers used in the parallel phase.
	Workers int `json:"workers"`

	// TopK is the number of largest primes requested.
	TopK int `json:"top_k"`

	// SeedBound is floor(sqrt(Limit)).
	SeedBound int `json:"seed_bound"`

	// SeedPrimes is the number of primes at or below SeedBound.
	SeedPrimes int `json:"seed_primes"`

	// Ranges are the worker ranges in ascending order.
	Ranges []Range `json:"ranges,omitempty"`

	// Count is the number of primes at or below Limit.
	Count int64 `json:"count"`

	// Sum is the decimal sum of all primes at or below Limit.
	Sum string `json:"sum"`

	// Largest holds the TopK largest primes in ascending order.
	Largest []int `json:"largest"`

	// Elapsed is the wall-clock time of the parallel phase only.
	Elapsed time.Duration `json:"elapsed"`

	// Gap is the unassigned tail left by the equal-split policy, if any.
	Gap *Range `json:"gap,omitempty"`

	// Cached indicates the result was served from the result cache.
	Cached bool `json:"cached,omitempty"`
}

// Phase identifies the stage of a sieve run.
type Phase string

// Sieve run phases in execution order.
const (
	PhaseSeed      Phase = "seed"
	PhasePartition Phase = "partition"
	PhaseSegments  Phase = "segments"
	PhaseAggregate Phase = "aggregate"
	PhaseDone      Phase = "done"
)

// Progress reports real-time sieve progress.
type Progress struct {
	// Phase is the stage currently executing.
	Phase Phase `json:"phase"`

	// Workers is the total number of segment workers.
	Workers int `json:"workers"`

	// WorkersDone is the number of workers that have returned.
	WorkersDone int64 `json:"workers_done"`

	// StrikesDone counts seed primes fully struck across all segments.
	StrikesDone int64 `json:"strikes_done"`

	// StrikesTotal is Workers multiplied by the number of seed primes.
	StrikesTotal int64 `json:"strikes_total"`

	// Elapsed is the time since the run started.
	Elapsed time.Duration `json:"elapsed"`
}

// Fraction returns the completed share of the parallel phase in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Phase == PhaseAggregate || p.Phase == PhaseDone {
		return 1
	}
	if p.StrikesTotal <= 0 {
		return 0
	}
	f := float64(p.StrikesDone) / float64(p.StrikesTotal)
	return math.Min(f, 1)
}

// boundPattern matches bound strings like "100", "1e8", "2.5e6", "100M", "10K".
var boundPattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?(?:e[0-9]+)?)\s*([KMGT]?)\s*$`)

// ErrInvalidBound indicates that a bound string could not be parsed.
var ErrInvalidBound = errors.New("invalid bound")

// ParseBound parses a human-friendly integer bound.
// It accepts plain integers with optional '_' or ',' digit separators,
// scientific notation ("1e8") and decimal suffixes K, M, G, T
// (powers of 1000). The result must be a whole, non-negative number
// that fits in an int.
func ParseBound(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidBound)
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidBound, s)
	}

	cleaned := strings.NewReplacer("_", "", ",", "").Replace(s)
	if n, err := strconv.Atoi(cleaned); err == nil {
		return n, nil
	}

	matches := boundPattern.FindStringSubmatch(cleaned)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBound, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBound, s)
	}

	switch strings.ToUpper(matches[2]) {
	case "K":
		value *= 1e3
	case "M":
		value *= 1e6
	case "G":
		value *= 1e9
	case "T":
		value *= 1e12
	}

	if value != math.Trunc(value) {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrInvalidBound, s)
	}
	if value >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows int", ErrInvalidBound, s)
	}
	return int(value), nil
}

// FormatCount formats an integer with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatBigCount formats a decimal integer string with thousands separators.
// Strings that are not decimal integers are returned unchanged.
func FormatBigCount(s string) string {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return s
	}
	return humanize.BigComma(n)
}

// FormatSize converts a size in bytes to a human-readable string
// using binary (IEC) units.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

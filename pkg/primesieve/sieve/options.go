// Package sieve computes all primes up to a bound N with a segmented,
// multi-worker Sieve of Eratosthenes.
//
// A run has two phases. A sequential seed sieve over [0, floor(sqrt(N))]
// yields the base primes. The remaining range (sqrt(N), N] is then split into
// W contiguous ranges, one per worker, and each worker strikes the multiples
// of every seed prime inside its own range. Workers write to disjoint parts
// of a shared flag arena, so the parallel phase needs no locks. Once all
// workers have joined, a single pass aggregates the prime count, the prime
// sum and the K largest primes.
package sieve

import (
	"fmt"

	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
)

// Default run parameters.
const (
	// DefaultLimit is the default upper bound N.
	DefaultLimit = 100_000_000

	// DefaultWorkers is the default number of segment workers.
	DefaultWorkers = 8

	// DefaultTopK is the default number of largest primes to report.
	DefaultTopK = 10
)

// Options configures a sieve run.
type Options struct {
	// Limit is the inclusive upper bound N. Must be at least 1.
	Limit int

	// Workers is the number of segment workers W. Must be at least 1.
	Workers int

	// TopK is the number of largest primes to report. Zero disables the list.
	TopK int

	// Policy controls how a non-divisible split of (M, N] is handled.
	Policy PartitionPolicy

	// MaxMemory caps the arena size in bytes. Zero disables the check.
	MaxMemory int64

	// OnProgress is called with progress updates. It must be safe to call
	// from multiple goroutines.
	OnProgress func(types.Progress)
}

// DefaultOptions returns N = 10^8, 8 workers, the 10 largest primes and the
// remainder policy.
func DefaultOptions() Options {
	return Options{
		Limit:   DefaultLimit,
		Workers: DefaultWorkers,
		TopK:    DefaultTopK,
		Policy:  PolicyRemainderLast,
	}
}

// Validate checks every precondition that can be decided before work begins.
func (o *Options) Validate() error {
	if o.Limit < 1 {
		return fmt.Errorf("%w: limit N=%d must be a positive integer", ErrInvalidConfig, o.Limit)
	}
	if o.Workers < 1 {
		return fmt.Errorf("%w: workers W=%d must be a positive integer", ErrInvalidConfig, o.Workers)
	}
	if o.TopK < 0 {
		return fmt.Errorf("%w: top K=%d must not be negative", ErrInvalidConfig, o.TopK)
	}
	switch o.Policy {
	case PolicyRemainderLast, PolicyStrict, PolicyEqual:
	default:
		return fmt.Errorf("%w: unknown partition policy %d", ErrInvalidConfig, o.Policy)
	}
	if bound := PrimeCountUpperBound(o.Limit); o.TopK > bound {
		return fmt.Errorf("%w: K=%d but at most %d primes exist up to %d", ErrTooFewPrimes, o.TopK, bound, o.Limit)
	}
	if o.Policy == PolicyStrict {
		m := ISqrt(o.Limit)
		if rem := (o.Limit - m) % o.Workers; rem != 0 {
			return fmt.Errorf("%w: N-M=%d is not divisible by W=%d (remainder %d)",
				ErrCoverageGap, o.Limit-m, o.Workers, rem)
		}
	}
	if o.MaxMemory > 0 && ArenaBytes(o.Limit) > o.MaxMemory {
		return fmt.Errorf("%w: %s of flags exceeds the %s memory budget",
			ErrResourceExhaustion, types.FormatSize(ArenaBytes(o.Limit)), types.FormatSize(o.MaxMemory))
	}
	return nil
}

// ArenaBytes returns the memory the flag arena needs for limit.
func ArenaBytes(limit int) int64 {
	return int64(limit) + 1
}

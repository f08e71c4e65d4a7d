package sieve

import "errors"

// Sentinel errors for the sieve pipeline. Callers match them with errors.Is;
// the wrapped message names the precondition that failed.
var (
	// ErrInvalidConfig indicates that N, W, K or the partition policy is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTooFewPrimes indicates that more top primes were requested than exist up to N.
	ErrTooFewPrimes = errors.New("top-k exceeds available primes")

	// ErrResourceExhaustion indicates that the composite-flag arena cannot be allocated.
	ErrResourceExhaustion = errors.New("resource exhaustion")

	// ErrCoverageGap indicates that the worker ranges do not cover (M, N] exactly.
	ErrCoverageGap = errors.New("partition coverage gap")

	// ErrRangeOverlap indicates that two worker ranges share an index.
	ErrRangeOverlap = errors.New("partition ranges overlap")

	// ErrRangeOutOfBounds indicates a range that falls outside the arena.
	ErrRangeOutOfBounds = errors.New("range out of bounds")
)

// IsConfigError reports whether err is a configuration error that should be
// detected before any work begins.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrTooFewPrimes) ||
		errors.Is(err, ErrCoverageGap)
}

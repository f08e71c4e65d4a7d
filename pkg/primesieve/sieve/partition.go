package sieve

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
)

// PartitionPolicy decides what happens to the (N-M) mod W integers that an
// equal split of (M, N] cannot place.
type PartitionPolicy int

const (
	// PolicyRemainderLast extends the last range to end at N.
	PolicyRemainderLast PartitionPolicy = iota

	// PolicyStrict rejects any split that leaves a remainder.
	PolicyStrict

	// PolicyEqual keeps the literal equal split and leaves the tail unassigned.
	// Primes in the tail are then miscounted; Coverage reports the gap.
	PolicyEqual
)

// String returns the policy name used in configuration.
func (p PartitionPolicy) String() string {
	switch p {
	case PolicyRemainderLast:
		return "remainder"
	case PolicyStrict:
		return "strict"
	case PolicyEqual:
		return "equal"
	default:
		return "unknown"
	}
}

// ParsePolicy parses a policy name.
func ParsePolicy(s string) (PartitionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "remainder", "remainder-last":
		return PolicyRemainderLast, nil
	case "strict":
		return PolicyStrict, nil
	case "equal":
		return PolicyEqual, nil
	default:
		return PolicyRemainderLast, fmt.Errorf("%w: unknown partition policy %q (want remainder, strict or equal)",
			ErrInvalidConfig, s)
	}
}

// Partition splits (m, n] into w ascending, contiguous ranges of
// (n-m)/w integers each. Range i starts at m+1+i*chunk. When w exceeds n-m
// the chunk length is zero and those ranges are empty.
func Partition(n, m, w int, policy PartitionPolicy) ([]types.Range, error) {
	if w <= 0 {
		return nil, fmt.Errorf("%w: worker count %d must be positive", ErrInvalidConfig, w)
	}
	if m < 0 || m > n {
		return nil, fmt.Errorf("%w: seed bound %d outside [0, %d]", ErrInvalidConfig, m, n)
	}

	total := n - m
	chunk := total / w
	rem := total % w

	if rem != 0 && policy == PolicyStrict {
		return nil, fmt.Errorf("%w: %d integers above %d do not divide evenly among %d workers (remainder %d)",
			ErrCoverageGap, total, m, w, rem)
	}

	ranges := make([]types.Range, w)
	for i := range ranges {
		lo := m + 1 + i*chunk
		ranges[i] = types.Range{Lo: lo, Hi: lo + chunk - 1}
	}
	if policy == PolicyRemainderLast {
		ranges[w-1].Hi = n
	}

	return ranges, nil
}

// Coverage checks that ranges are ascending, pairwise disjoint and cover
// (m, n] exactly. When the union stops short of n it returns the uncovered
// tail along with ErrCoverageGap.
func Coverage(ranges []types.Range, m, n int) (types.Range, error) {
	next := m + 1
	for i, r := range ranges {
		if r.Empty() {
			continue
		}
		switch {
		case r.Lo < next:
			return types.Range{}, fmt.Errorf("%w: range %d %s starts below %d", ErrRangeOverlap, i, r, next)
		case r.Lo > next:
			hole := types.Range{Lo: next, Hi: r.Lo - 1}
			return hole, fmt.Errorf("%w: %s unassigned before range %d", ErrCoverageGap, hole, i)
		case r.Hi > n:
			return types.Range{}, fmt.Errorf("%w: range %d %s ends past %d", ErrRangeOutOfBounds, i, r, n)
		}
		next = r.Hi + 1
	}

	if next <= n {
		gap := types.Range{Lo: next, Hi: n}
		return gap, fmt.Errorf("%w: %s unassigned", ErrCoverageGap, gap)
	}
	return types.Range{}, nil
}

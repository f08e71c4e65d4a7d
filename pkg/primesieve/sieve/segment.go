package sieve

import "github.com/jamesainslie/primesieve/pkg/primesieve/types"

// MarkSegment strikes every multiple of each seed prime inside r.
// seg[0] corresponds to r.Lo and len(seg) must equal r.Len(). A prime that
// itself lies inside r is left unmarked. onPrime, if non-nil, is called once
// per seed prime after its multiples are struck.
func MarkSegment(seg []bool, r types.Range, primes []int, onPrime func()) {
	if r.Empty() {
		return
	}
	lo := r.Lo
	seg = seg[:r.Len()]

	for _, p := range primes {
		start := lo - lo%p
		if start < lo {
			start += p
		}
		if start == p {
			start += p
		}
		for i := start - lo; i < len(seg); i += p {
			seg[i] = true
		}
		if onPrime != nil {
			onPrime()
		}
	}
}

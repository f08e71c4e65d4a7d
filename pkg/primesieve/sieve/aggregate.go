package sieve

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"slices"
	"strconv"
)

// Sum is a 128-bit unsigned accumulator for prime sums.
type Sum struct {
	hi, lo uint64
}

// Add adds v to the sum.
func (s *Sum) Add(v uint64) {
	var carry uint64
	s.lo, carry = bits.Add64(s.lo, v, 0)
	s.hi += carry
}

// Big returns the sum as a big.Int.
func (s Sum) Big() *big.Int {
	b := new(big.Int).SetUint64(s.hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(s.lo))
}

// String returns the sum in decimal.
func (s Sum) String() string {
	if s.hi == 0 {
		return strconv.FormatUint(s.lo, 10)
	}
	return s.Big().String()
}

// Summary holds the aggregate statistics of a populated arena.
type Summary struct {
	Count   int64
	Sum     Sum
	Largest []int
}

// Aggregate scans the arena once forward for the count and sum of unmarked
// indices, then backward from N for the k largest, returned ascending.
// It returns ErrTooFewPrimes when fewer than k primes exist.
func Aggregate(a *Arena, k int) (Summary, error) {
	if k < 0 {
		return Summary{}, fmt.Errorf("%w: top-k %d is negative", ErrInvalidConfig, k)
	}

	var s Summary
	for i, composite := range a.Flags() {
		if !composite {
			s.Count++
			s.Sum.Add(uint64(i))
		}
	}

	if int64(k) > s.Count {
		return s, fmt.Errorf("%w: requested %d, found %d up to %d", ErrTooFewPrimes, k, s.Count, a.limit)
	}

	s.Largest = make([]int, 0, k)
	for i := a.limit; len(s.Largest) < k; i-- {
		if !a.Composite(i) {
			s.Largest = append(s.Largest, i)
		}
	}
	slices.Reverse(s.Largest)

	return s, nil
}

// PrimeCountUpperBound returns an upper bound on the number of primes <= n,
// using Rosser and Schoenfeld's pi(x) < 1.25506 x / ln x for x > 1.
func PrimeCountUpperBound(n int) int {
	if n < 2 {
		return 0
	}
	x := float64(n)
	return int(math.Ceil(1.25506 * x / math.Log(x)))
}
